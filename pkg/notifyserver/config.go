package notifyserver

import "time"

type Config struct {
	CookieName        string        `env:"NOTIFYD_COOKIE_NAME" envDefault:"notifykit_session"`
	CookieSecure      bool          `env:"NOTIFYD_COOKIE_SECURE" envDefault:"false"`
	SessionTTL        time.Duration `env:"NOTIFYD_SESSION_TTL" envDefault:"24h"`
	SocketAuthTimeout time.Duration `env:"NOTIFYD_SOCKET_AUTH_TIMEOUT" envDefault:"10s"`
	PageSize          int           `env:"NOTIFYD_PAGE_SIZE" envDefault:"20"`
	MaxPageSize       int           `env:"NOTIFYD_MAX_PAGE_SIZE" envDefault:"100"`
	// OriginPatterns lists extra hosts allowed to open the websocket cross-origin.
	OriginPatterns []string `env:"NOTIFYD_ORIGIN_PATTERNS" envSeparator:","`
}

func DefaultConfig() Config {
	return Config{
		CookieName:        "notifykit_session",
		SessionTTL:        24 * time.Hour,
		SocketAuthTimeout: 10 * time.Second,
		PageSize:          20,
		MaxPageSize:       100,
	}
}
