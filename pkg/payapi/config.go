package payapi

// Config holds the payment backend settings.
type Config struct {
	BaseURL         string   `env:"PAY_BACKEND_URL" envDefault:"https://api.ludens.school"`
	PremiumCurrency string   `env:"PAY_PREMIUM_CURRENCY" envDefault:"UAH"`
	TokenCurrencies []string `env:"PAY_TOKEN_CURRENCIES" envDefault:"UAH,USD,EUR" envSeparator:","`
}

// NewFromConfig builds a Client for cfg.BaseURL.
func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	return New(cfg.BaseURL, opts...)
}
