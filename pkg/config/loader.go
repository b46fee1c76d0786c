package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option tunes a single Load call.
type Option func(*loadOptions)

type loadOptions struct {
	prefix   string
	envFiles []string
}

// WithPrefix prepends prefix to every env key of the struct, e.g. "WATCH_".
// Configs loaded with different prefixes are cached separately.
func WithPrefix(prefix string) Option {
	return func(o *loadOptions) { o.prefix = prefix }
}

// WithEnvFiles loads the given .env files instead of the default ".env".
// Missing files are an error, unlike the default file.
func WithEnvFiles(files ...string) Option {
	return func(o *loadOptions) { o.envFiles = append(o.envFiles, files...) }
}

type configCache struct {
	mu       sync.Mutex
	values   map[string]any
	envFiles map[string]bool
}

var globalCache = &configCache{
	values:   make(map[string]any),
	envFiles: make(map[string]bool),
}

// Load parses environment variables into v. The first successful load of a
// type (and prefix) is cached and returned to every later caller.
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	o := loadOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()

	if err := globalCache.loadEnvFiles(o.envFiles); err != nil {
		return err
	}

	key := o.prefix + getTypeName[T]()
	if cached, ok := globalCache.values[key]; ok {
		*v = cached.(T)
		return nil
	}

	var parsed T
	if err := env.ParseWithOptions(&parsed, env.Options{Prefix: o.prefix}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	globalCache.values[key] = parsed
	*v = parsed
	return nil
}

// MustLoad works like Load but panics on failure. Use it for configuration
// the binary cannot start without.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// Reset drops every cached configuration and forgets loaded .env files.
func Reset() {
	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()
	globalCache.values = make(map[string]any)
	globalCache.envFiles = make(map[string]bool)
}

// Must be called with lock held.
func (c *configCache) loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if !c.envFiles[".env"] {
			c.envFiles[".env"] = true
			// The default file is optional.
			_ = godotenv.Load()
		}
		return nil
	}

	for _, f := range files {
		if c.envFiles[f] {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Join(ErrLoadingEnvFile, fmt.Errorf("%s: %w", f, err))
		}
		c.envFiles[f] = true
	}
	return nil
}

func getTypeName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return t.PkgPath() + "." + t.String()
}
