package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nikolayk812/canteen-client/internal/config"
	"github.com/nikolayk812/canteen-client/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cmd, err := newRootCommand()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app is built once per invocation from flags, environment and .env.
type app struct {
	v   *viper.Viper
	cfg config.Config
	log *zap.Logger
}

func newRootCommand() (*cobra.Command, error) {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:           "canteen",
		Short:         "Canteen ordering client",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.load()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	if err := config.Bind(root, a.v); err != nil {
		return nil, fmt.Errorf("config.Bind: %w", err)
	}

	root.AddCommand(
		a.serveCommand(),
		a.loginCommand(),
		a.logoutCommand(),
		a.useCommand(),
		a.sessionCommand(),
		a.cartCommand(),
		a.canteensCommand(),
		a.ordersCommand(),
	)
	return root, nil
}

func (a *app) load() error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.New(os.Stderr, level)
	return nil
}
