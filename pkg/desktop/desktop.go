package desktop

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Permission is the platform notification permission state.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

func (p Permission) Valid() bool {
	switch p {
	case PermissionDefault, PermissionGranted, PermissionDenied:
		return true
	}
	return false
}

// Notifier shows platform notifications.
type Notifier interface {
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Show(ctx context.Context, title, body string) error
}

// Presenter renders a notification on the platform.
type Presenter interface {
	Present(ctx context.Context, title, body string) error
}

// Prompter asks the user for notification permission.
type Prompter interface {
	Prompt(ctx context.Context) (Permission, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context) (Permission, error)

func (f PrompterFunc) Prompt(ctx context.Context) (Permission, error) { return f(ctx) }

// AutoGrant grants permission without asking.
var AutoGrant = PrompterFunc(func(context.Context) (Permission, error) {
	return PermissionGranted, nil
})

// Gate is a Notifier forwarding to a Presenter while permission is granted.
type Gate struct {
	presenter Presenter
	prompter  Prompter
	logger    *slog.Logger

	mu         sync.RWMutex
	permission Permission
}

type Option func(*Gate)

// WithPermission sets the initial permission, e.g. one persisted earlier.
func WithPermission(p Permission) Option {
	return func(g *Gate) {
		if p.Valid() {
			g.permission = p
		}
	}
}

// WithPrompter sets how RequestPermission asks the user. Default AutoGrant.
func WithPrompter(p Prompter) Option {
	return func(g *Gate) {
		if p != nil {
			g.prompter = p
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = l
	}
}

func NewGate(presenter Presenter, opts ...Option) *Gate {
	g := &Gate{
		presenter:  presenter,
		prompter:   AutoGrant,
		permission: PermissionDefault,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logger.OrDefault(g.logger).With(logger.Component("desktop"))
	return g
}

func (g *Gate) Permission() Permission {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.permission
}

// RequestPermission prompts the user unless a decision was already made.
func (g *Gate) RequestPermission(ctx context.Context) (Permission, error) {
	if p := g.Permission(); p != PermissionDefault {
		return p, nil
	}

	p, err := g.prompter.Prompt(ctx)
	if err != nil {
		return PermissionDefault, fmt.Errorf("request notification permission: %w", err)
	}
	if !p.Valid() {
		return PermissionDefault, fmt.Errorf("%w: %q", ErrInvalidPermission, p)
	}

	g.mu.Lock()
	g.permission = p
	g.mu.Unlock()

	g.logger.LogAttrs(ctx, slog.LevelInfo, "notification permission decided", slog.String("permission", string(p)))
	return p, nil
}

// Show presents the notification. Returns ErrNotGranted without permission.
func (g *Gate) Show(ctx context.Context, title, body string) error {
	if g.Permission() != PermissionGranted {
		return ErrNotGranted
	}
	if err := g.presenter.Present(ctx, title, body); err != nil {
		return fmt.Errorf("present notification: %w", err)
	}
	return nil
}

// LogPresenter writes notifications to a logger.
type LogPresenter struct {
	logger *slog.Logger
}

func NewLogPresenter(l *slog.Logger) *LogPresenter {
	return &LogPresenter{logger: logger.OrDefault(l)}
}

func (p *LogPresenter) Present(ctx context.Context, title, body string) error {
	p.logger.LogAttrs(ctx, slog.LevelInfo, "desktop notification",
		slog.String("title", title),
		slog.String("body", body),
	)
	return nil
}
