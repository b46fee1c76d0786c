// Command notifywatch signs in to a notifyd instance as one user and logs
// every change of the inbox, the toast queue and the realtime channel until
// interrupted. It falls back to polling when the socket is unavailable.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/notifykit/pkg/broadcast"
	"github.com/dmitrymomot/notifykit/pkg/config"
	"github.com/dmitrymomot/notifykit/pkg/desktop"
	"github.com/dmitrymomot/notifykit/pkg/inbox"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notifyapi"
	"github.com/dmitrymomot/notifykit/pkg/realtime"
	"github.com/dmitrymomot/notifykit/pkg/toast"
)

type watchConfig struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	APIURL  string `env:"NOTIFYWATCH_API_URL" envDefault:"http://localhost:8080"`
	UserID  string `env:"NOTIFYWATCH_USER_ID,required"`
	Desktop bool   `env:"NOTIFYWATCH_DESKTOP" envDefault:"true"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "notifywatch:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		cfg         watchConfig
		inboxCfg    inbox.Config
		toastCfg    toast.Config
		realtimeCfg realtime.Config
	)
	for _, load := range []func() error{
		func() error { return config.Load(&cfg) },
		func() error { return config.Load(&inboxCfg) },
		func() error { return config.Load(&toastCfg) },
		func() error { return config.Load(&realtimeCfg) },
	} {
		if err := load(); err != nil {
			return err
		}
	}

	log := logger.New(logger.WithEnvironment(cfg.Env, "notifywatch"))

	api, err := notifyapi.New(cfg.APIURL, notifyapi.WithLogger(log))
	if err != nil {
		return err
	}
	id, err := api.Login(ctx, cfg.UserID)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	log.Info("signed in", logger.UserID(id.UserID))

	store := inbox.New(api, inbox.WithConfig(inboxCfg), inbox.WithLogger(log))
	defer store.Close()
	toasts := toast.NewQueue(toast.WithConfig(toastCfg), toast.WithLogger(log))
	defer toasts.Close()

	opts := []realtime.Option{
		realtime.WithConfig(realtimeCfg),
		realtime.WithStore(store),
		realtime.WithToaster(toasts),
		realtime.WithLogger(log),
	}
	if cfg.Desktop {
		gate := desktop.NewGate(desktop.NewLogPresenter(log),
			desktop.WithPrompter(desktop.AutoGrant), desktop.WithLogger(log))
		if _, err := gate.RequestPermission(ctx); err != nil {
			log.Warn("desktop notifications unavailable", logger.Error(err))
		}
		opts = append(opts, realtime.WithDesktop(gate))
	}

	dialer := realtime.NewFallbackDialer(
		realtime.NewWebSocketDialer(realtime.SocketURL(api.BaseURL()), realtime.WithCookieJar(api.Jar())),
		realtime.NewPollingDialer(api, realtime.WithPollInterval(realtimeCfg.PollInterval)),
		log,
	)
	channel := realtime.New(api, dialer, opts...)
	defer channel.Close()

	prime(ctx, store, inboxCfg.PageSize, log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watch(ctx, store.Subscribe(ctx), func(s inbox.Snapshot) {
			log.Info("inbox changed",
				logger.Count(len(s.Notifications)),
				slog.Int("unread", s.UnreadCount),
				slog.Bool("loading", s.Loading),
				logger.Error(s.Err))
		})
	})
	g.Go(func() error {
		return watch(ctx, toasts.Subscribe(ctx), func(items []toast.Item) {
			for _, it := range items {
				log.Info("toast", logger.ToastID(it.ID),
					slog.String("kind", string(it.Kind)),
					slog.String("title", it.Title),
					slog.Float64("remaining", it.Remaining))
			}
		})
	})
	g.Go(func() error {
		if err := channel.Start(ctx); err != nil {
			return fmt.Errorf("start realtime: %w", err)
		}
		<-ctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("stopped", logger.State(string(channel.State())))
	return nil
}

// prime loads the first page and the unread count in parallel. Failures are
// only logged: pushes and later refreshes fill the store in.
func prime(ctx context.Context, store *inbox.Store, pageSize int, log *slog.Logger) {
	list := store.FetchNotificationsAsync(ctx, 1, pageSize)
	count := store.FetchUnreadCountAsync(ctx)
	if _, err := list.AwaitContext(ctx); err != nil {
		log.LogAttrs(ctx, slog.LevelWarn, "initial notification fetch failed", logger.Error(err))
	}
	if _, err := count.AwaitContext(ctx); err != nil {
		log.LogAttrs(ctx, slog.LevelWarn, "initial unread count fetch failed", logger.Error(err))
	}
}

func watch[T any](ctx context.Context, sub broadcast.Subscriber[T], fn func(T)) error {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Receive(ctx):
			if !ok {
				return nil
			}
			fn(msg.Data)
		}
	}
}
