// Command notifyd serves the notification REST API and the push socket.
//
// Storage is in memory by default; set NOTIFYD_STORAGE=redis to keep
// notifications and sessions in redis (REDIS_URL).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dmitrymomot/notifykit/pkg/config"
	"github.com/dmitrymomot/notifykit/pkg/httpserver"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notifications"
	"github.com/dmitrymomot/notifykit/pkg/notifyserver"
	"github.com/dmitrymomot/notifykit/pkg/redis"
)

type appConfig struct {
	Env        string `env:"APP_ENV" envDefault:"development"`
	Storage    string `env:"NOTIFYD_STORAGE" envDefault:"memory"`
	FeedBuffer int    `env:"NOTIFYD_FEED_BUFFER" envDefault:"16"`
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "notifyd:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		app     appConfig
		httpCfg httpserver.Config
		srvCfg  notifyserver.Config
	)
	if err := config.Load(&app); err != nil {
		return err
	}
	if err := config.Load(&httpCfg); err != nil {
		return err
	}
	if err := config.Load(&srvCfg); err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(app.Env, "notifyd"),
		logger.WithContextExtractors(notifyserver.RequestIDExtractor()),
	)
	logger.SetAsDefault(log)

	b, err := openBackend(ctx, app.Storage, srvCfg, log)
	if err != nil {
		return err
	}

	deliverer := notifications.NewBroadcastDeliverer(app.FeedBuffer, notifications.WithBroadcastLogger(log))
	manager := notifications.NewManager(b.storage, deliverer, notifications.WithManagerLogger(log))

	opts := []notifyserver.Option{
		notifyserver.WithConfig(srvCfg),
		notifyserver.WithLogger(log),
		notifyserver.WithReadinessChecks(b.checks...),
	}
	if b.sessions != nil {
		opts = append(opts, notifyserver.WithSessions(b.sessions))
	}
	handler := notifyserver.New(manager, deliverer, opts...)

	srv := httpserver.NewFromConfig(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			l.Info("notifyd started", slog.String("storage", app.Storage))
		}),
		httpserver.WithDrainHook(func(l *slog.Logger) {
			if err := deliverer.Close(); err != nil {
				l.Error("close notification feed", logger.Error(err))
			}
		}),
		httpserver.WithStopHook(func(l *slog.Logger) {
			if err := b.close(); err != nil {
				l.Error("close storage", logger.Error(err))
			}
		}),
	)
	return srv.Run(ctx, handler)
}

type backend struct {
	storage  notifications.Storage
	sessions notifyserver.Sessions
	checks   []func(context.Context) error
	close    func() error
}

// openBackend picks the notification storage. Redis also backs the sessions
// and adds a readiness check; memory leaves sessions to the server default.
func openBackend(ctx context.Context, kind string, srvCfg notifyserver.Config, log *slog.Logger) (*backend, error) {
	switch kind {
	case "memory", "":
		return &backend{
			storage: notifications.NewMemoryStorage(),
			close:   func() error { return nil },
		}, nil
	case "redis":
		var redisCfg redis.Config
		if err := config.Load(&redisCfg); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, redisCfg, log)
		if err != nil {
			return nil, err
		}
		return &backend{
			storage: notifications.NewRedisStorage(client,
				notifications.WithKeyPrefix(redisCfg.KeyPrefix+"notifications:")),
			sessions: notifyserver.NewKVSessions(redis.NewStorage(client, redisCfg.KeyPrefix), srvCfg.SessionTTL),
			checks:   []func(context.Context) error{redis.Healthcheck(client)},
			close:    client.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown NOTIFYD_STORAGE %q", kind)
	}
}
