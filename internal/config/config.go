// Package config binds command-line flags, CANTEEN_* environment variables
// and an optional .env file into one Config.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/currency"
)

const EnvPrefix = "CANTEEN"

const (
	KeyAPIURL         = "api-url"
	KeyHTTPAddr       = "http-addr"
	KeyPostgresDSN    = "postgres-dsn"
	KeyBoltPath       = "bolt-path"
	KeyLogLevel       = "log-level"
	KeyCurrency       = "currency"
	KeyRequestTimeout = "request-timeout"
	KeySession        = "session"
)

type Config struct {
	APIURL         string
	HTTPAddr       string
	PostgresDSN    string
	BoltPath       string
	LogLevel       string
	Currency       currency.Unit
	RequestTimeout time.Duration
	Session        string
}

type opt struct {
	key   string
	dflt  any
	usage string
}

var opts = []opt{
	{KeyAPIURL, "", "base URL of the canteen backend"},
	{KeyHTTPAddr, ":8080", "listen address of the gateway"},
	{KeyPostgresDSN, "", "postgres connection string for session preferences; in-memory when empty"},
	{KeyBoltPath, "canteen.db", "bolt file holding the CLI session"},
	{KeyLogLevel, "info", "log level: debug, info, warn, error"},
	{KeyCurrency, "INR", "currency assumed when the backend omits one"},
	{KeyRequestTimeout, 10 * time.Second, "timeout of one backend call"},
	{KeySession, "default", "CLI session name"},
}

// LoadDotEnv reads path into the environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("godotenv.Load[%s]: %w", path, err)
	}
	return nil
}

// NewViper returns a viper instance reading CANTEEN_* variables, with dashes
// in keys mapped to underscores.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, o := range opts {
		v.SetDefault(o.key, o.dflt)
	}
	return v
}

// Bind registers every option as a persistent flag of cmd and binds it to v.
func Bind(cmd *cobra.Command, v *viper.Viper) error {
	flags := cmd.PersistentFlags()
	for _, o := range opts {
		switch d := o.dflt.(type) {
		case string:
			flags.String(o.key, d, o.usage)
		case time.Duration:
			flags.Duration(o.key, d, o.usage)
		default:
			return fmt.Errorf("option[%s]: unsupported default %T", o.key, o.dflt)
		}
		if err := v.BindPFlag(o.key, flags.Lookup(o.key)); err != nil {
			return fmt.Errorf("v.BindPFlag[%s]: %w", o.key, err)
		}
	}
	return nil
}

func Load(v *viper.Viper) (Config, error) {
	unit, err := currency.ParseISO(strings.ToUpper(v.GetString(KeyCurrency)))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", KeyCurrency, err)
	}

	cfg := Config{
		APIURL:         strings.TrimSpace(v.GetString(KeyAPIURL)),
		HTTPAddr:       v.GetString(KeyHTTPAddr),
		PostgresDSN:    v.GetString(KeyPostgresDSN),
		BoltPath:       v.GetString(KeyBoltPath),
		LogLevel:       v.GetString(KeyLogLevel),
		Currency:       unit,
		RequestTimeout: v.GetDuration(KeyRequestTimeout),
		Session:        v.GetString(KeySession),
	}
	if cfg.RequestTimeout < 0 {
		return Config{}, fmt.Errorf("%s must not be negative", KeyRequestTimeout)
	}
	return cfg, nil
}

// RequireAPI fails when no backend URL is configured.
func (c Config) RequireAPI() error {
	if c.APIURL == "" {
		return fmt.Errorf("%s is not set (flag --%s or env %s_API_URL)", KeyAPIURL, KeyAPIURL, EnvPrefix)
	}
	return nil
}
