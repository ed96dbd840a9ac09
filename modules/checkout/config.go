package checkout

import "time"

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	Store           string        `env:"CHECKOUT_STORE" envDefault:"memory"`
	MemoryCapacity  int           `env:"CHECKOUT_MEMORY_CAPACITY" envDefault:"10000"`
	StateTTL        time.Duration `env:"CHECKOUT_STATE_TTL" envDefault:"24h"`
	DefaultLanguage string        `env:"CHECKOUT_DEFAULT_LANGUAGE" envDefault:"ru"`
}
