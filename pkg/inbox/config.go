package inbox

import "time"

// Config holds the store settings loadable from the environment.
type Config struct {
	CacheTTL       time.Duration `env:"INBOX_CACHE_TTL" envDefault:"5m"`
	PageSize       int           `env:"INBOX_PAGE_SIZE" envDefault:"20"`
	RequestTimeout time.Duration `env:"INBOX_REQUEST_TIMEOUT" envDefault:"15s"`
}

func DefaultConfig() Config {
	return Config{
		CacheTTL:       5 * time.Minute,
		PageSize:       20,
		RequestTimeout: 15 * time.Second,
	}
}
