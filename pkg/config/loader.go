// Package config loads typed configuration structs from environment variables.
//
// Values come from the process environment, optionally seeded from a .env file.
// Each struct type is parsed once and cached for the lifetime of the process.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu     sync.RWMutex
	values = make(map[reflect.Type]any)
	onces  = make(map[reflect.Type]*sync.Once)

	defaultEnvLoaded sync.Once
)

// LoadEnvFile seeds the process environment from the given dotenv files.
// Variables that are already set are left untouched.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrEnvFile, err)
	}
	return nil
}

// Parse reads environment variables into a fresh T without touching the cache.
func Parse[T any]() (T, error) {
	v, err := env.ParseAs[T]()
	if err != nil {
		return v, errors.Join(ErrParsingConfig, err)
	}
	return v, nil
}

// Load fills v from the environment. The first successful call for a type
// is cached; later calls for the same type get the cached copy.
//
//	type ServerConfig struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg ServerConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		// a missing .env is the normal case outside development
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	key := reflect.TypeFor[T]()

	mu.RLock()
	if cached, ok := values[key]; ok {
		mu.RUnlock()
		*v = cached.(T)
		return nil
	}
	mu.RUnlock()

	mu.Lock()
	once, ok := onces[key]
	if !ok {
		once = new(sync.Once)
		onces[key] = once
	}
	mu.Unlock()

	var err error
	once.Do(func() {
		parsed, parseErr := Parse[T]()
		if parseErr != nil {
			err = parseErr
			// allow a retry once the environment is fixed
			mu.Lock()
			delete(onces, key)
			mu.Unlock()
			return
		}
		mu.Lock()
		values[key] = parsed
		mu.Unlock()
	})
	if err != nil {
		return err
	}

	mu.RLock()
	defer mu.RUnlock()
	cached, ok := values[key]
	if !ok {
		return ErrConfigNotLoaded
	}
	*v = cached.(T)
	return nil
}

// MustLoad is Load that panics on failure. Meant for startup code.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
