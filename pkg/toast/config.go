package toast

import "time"

type Config struct {
	Capacity int           `env:"TOAST_CAPACITY" envDefault:"3"`
	Duration time.Duration `env:"TOAST_DURATION" envDefault:"5s"`
}

func DefaultConfig() Config {
	return Config{Capacity: 3, Duration: 5 * time.Second}
}
