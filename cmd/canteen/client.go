package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"text/tabwriter"

	"github.com/benbjohnson/clock"
	"github.com/nikolayk812/canteen-client/internal/api"
	"github.com/nikolayk812/canteen-client/internal/cartsync"
	"github.com/nikolayk812/canteen-client/internal/domain"
	"github.com/nikolayk812/canteen-client/internal/repository"
	"github.com/nikolayk812/canteen-client/internal/service"
	"github.com/nikolayk812/canteen-client/internal/session"
	"github.com/nikolayk812/canteen-client/internal/state"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// local is the CLI session: preferences in a bolt file, named by --session.
type local struct {
	store    *repository.BoltPreferences
	services *service.Services
	syncer   *cartsync.Syncer
	guard    *session.Guard
}

func (a *app) openLocal() (*local, error) {
	store, err := repository.OpenBoltPreferences(a.cfg.BoltPath)
	if err != nil {
		return nil, fmt.Errorf("repository.OpenBoltPreferences: %w", err)
	}

	l := &local{store: store, guard: session.NewGuard(store, clock.New(), a.log)}
	if a.cfg.APIURL != "" {
		svc, err := service.New(store, a.cfg.Session, a.cfg.Currency,
			api.WithAddr(a.cfg.APIURL),
			api.WithHTTPClient(&http.Client{Timeout: a.cfg.RequestTimeout}),
			api.WithLogger(a.log),
		)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("service.New: %w", err)
		}
		l.services = svc
		l.syncer = cartsync.New(a.cfg.Session, svc.Cart, state.NewStore(), a.log)
	}
	return l, nil
}

// withLocal runs fn against the CLI session. With online set, the backend
// URL is required and a stored token must still be valid.
func (a *app) withLocal(ctx context.Context, online bool, fn func(*local) error) error {
	if online {
		if err := a.cfg.RequireAPI(); err != nil {
			return err
		}
	}

	l, err := a.openLocal()
	if err != nil {
		return err
	}
	defer func() {
		if err := l.store.Close(); err != nil {
			a.log.Warn("close bolt store", zap.Error(err))
		}
	}()

	if online {
		decision, err := l.guard.Check(ctx, a.cfg.Session)
		if err != nil {
			return fmt.Errorf("guard.Check: %w", err)
		}
		if !decision.Allowed {
			return fmt.Errorf("%s, run canteen login: %w", decision.Reason, domain.ErrUnauthenticated)
		}
	}
	return fn(l)
}

func (a *app) loginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login <token>",
		Short: "Store an access token for this session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLocal(cmd.Context(), false, func(l *local) error {
				if err := session.Check(args[0], l.guard.Now()); err != nil {
					return fmt.Errorf("session.Check: %w", err)
				}
				if _, err := l.store.Update(cmd.Context(), a.cfg.Session, func(p *domain.Preferences) error {
					p.Token = args[0]
					return nil
				}); err != nil {
					return fmt.Errorf("store.Update: %w", err)
				}
				exp, _ := session.Expiry(args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "logged in, token valid until %s\n", exp.Format("2006-01-02 15:04"))
				return nil
			})
		},
	}
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the token and selections of this session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withLocal(cmd.Context(), false, func(l *local) error {
				if _, err := l.store.Delete(cmd.Context(), a.cfg.Session); err != nil {
					return fmt.Errorf("store.Delete: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "logged out")
				return nil
			})
		},
	}
}

func (a *app) useCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use",
		Short: "Select the canteen or order date",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "canteen <id>",
			Short: "Select the canteen to order from",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := positiveID(args[0])
				if err != nil {
					return err
				}
				return a.updatePreferences(cmd, func(p *domain.Preferences) error {
					p.CanteenID = id
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "date <yyyy-mm-dd>",
			Short: "Select the order date",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				date, err := domain.ParseOrderDate(args[0])
				if err != nil {
					return fmt.Errorf("date must look like %s: %w", domain.DateLayout, err)
				}
				return a.updatePreferences(cmd, func(p *domain.Preferences) error {
					p.SelectedDate = date
					return nil
				})
			},
		},
	)
	return cmd
}

func (a *app) updatePreferences(cmd *cobra.Command, fn func(*domain.Preferences) error) error {
	return a.withLocal(cmd.Context(), false, func(l *local) error {
		prefs, err := l.store.Update(cmd.Context(), a.cfg.Session, fn)
		if err != nil {
			return fmt.Errorf("store.Update: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "canteen %d, date %s\n", prefs.CanteenID, prefs.OrderDate())
		return nil
	})
}

func (a *app) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect the stored session",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the stored token, clearing it when expired",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withLocal(cmd.Context(), false, func(l *local) error {
				decision, err := l.guard.Check(cmd.Context(), a.cfg.Session)
				if err != nil {
					return fmt.Errorf("guard.Check: %w", err)
				}
				if !decision.Allowed {
					return fmt.Errorf("%s: %w", decision.Reason, domain.ErrUnauthenticated)
				}
				prefs, err := l.store.Get(cmd.Context(), a.cfg.Session)
				if err != nil {
					return fmt.Errorf("store.Get: %w", err)
				}
				exp, _ := session.Expiry(prefs.Token)
				fmt.Fprintf(cmd.OutOrStdout(), "session %s valid until %s, canteen %d, date %s\n",
					a.cfg.Session, exp.Format("2006-01-02 15:04"), prefs.CanteenID, prefs.OrderDate())
				return nil
			})
		},
	})
	return cmd
}

func (a *app) canteensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "canteens",
		Short: "List the canteens available to you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withLocal(cmd.Context(), true, func(l *local) error {
				canteens, err := l.services.Canteens.ListForUser(cmd.Context())
				if err != nil {
					return fmt.Errorf("canteens.ListForUser: %w", err)
				}
				w := newTable(cmd.OutOrStdout())
				fmt.Fprintln(w, "ID\tNAME\tLOCATION")
				for _, c := range canteens {
					fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, c.Location)
				}
				return w.Flush()
			})
		},
	}
}

func (a *app) ordersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withLocal(cmd.Context(), true, func(l *local) error {
				orders, err := l.services.Orders.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("orders.List: %w", err)
				}
				w := newTable(cmd.OutOrStdout())
				fmt.Fprintln(w, "ID\tORDER\tSTATUS\tDATE\tTOTAL")
				for _, o := range orders {
					date := ""
					if !o.OrderDate.IsZero() {
						date = o.OrderDate.Format(domain.DateLayout)
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", o.ID, o.OrderNo, o.Status, date, o.TotalAmount)
				}
				return w.Flush()
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "cancel <orderId>",
		Short: "Cancel an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := positiveID(args[0])
			if err != nil {
				return err
			}
			return a.withLocal(cmd.Context(), true, func(l *local) error {
				if err := l.services.Orders.Cancel(cmd.Context(), id); err != nil {
					return fmt.Errorf("orders.Cancel: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "order %d cancelled\n", id)
				return nil
			})
		},
	})
	return cmd
}

func positiveID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
