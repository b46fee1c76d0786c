package realtime

import "time"

type Config struct {
	MaxAttempts  int           `env:"REALTIME_MAX_ATTEMPTS" envDefault:"5"`
	RetryDelay   time.Duration `env:"REALTIME_RETRY_DELAY" envDefault:"5s"`
	DialTimeout  time.Duration `env:"REALTIME_DIAL_TIMEOUT" envDefault:"10s"`
	PollInterval time.Duration `env:"REALTIME_POLL_INTERVAL" envDefault:"15s"`
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:  5,
		RetryDelay:   5 * time.Second,
		DialTimeout:  10 * time.Second,
		PollInterval: 15 * time.Second,
	}
}
