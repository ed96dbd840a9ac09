package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ludens-school/paywidget/modules/checkout"
	"github.com/ludens-school/paywidget/pkg/config"
	"github.com/ludens-school/paywidget/pkg/cookie"
	"github.com/ludens-school/paywidget/pkg/environment"
	"github.com/ludens-school/paywidget/pkg/httpserver"
	"github.com/ludens-school/paywidget/pkg/payapi"
	"github.com/ludens-school/paywidget/pkg/ratelimiter"
	"github.com/ludens-school/paywidget/pkg/redis"
)

var ErrMissingSecret = errors.New("APP_SECRET is required outside development")

type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Name     string `env:"APP_NAME" envDefault:"paywidget"`
	LogLevel string `env:"LOG_LEVEL"`

	HTTP     httpserver.Config
	Pay      payapi.Config
	Checkout checkout.Config
	Redis    redis.Config
	Cookie   cookie.Config

	PremiumLimit ratelimiter.Config `envPrefix:"PREMIUM_"`
	APILimit     ratelimiter.Config `envPrefix:"API_"`
}

func (c appConfig) environment() environment.Environment {
	return environment.Parse(c.Env)
}

// loadConfig reads the environment after seeding it from --env-file.
// Development runs without APP_SECRET get a throwaway one.
func loadConfig(cmd *cobra.Command) (appConfig, error) {
	files, _ := cmd.Flags().GetStringSlice("env-file")
	if err := config.LoadEnvFile(files...); err != nil {
		return appConfig{}, err
	}
	cfg, err := config.Parse[appConfig]()
	if err != nil {
		return appConfig{}, err
	}
	if cfg.Cookie.Secrets == "" {
		if !cfg.environment().IsDevelopment() {
			return appConfig{}, ErrMissingSecret
		}
		if cfg.Cookie.Secrets, err = cookie.GenerateSecret(); err != nil {
			return appConfig{}, err
		}
	}
	return cfg, nil
}
