package realtime

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// FallbackDialer dials primary and degrades to secondary when it fails.
type FallbackDialer struct {
	primary   Dialer
	secondary Dialer
	logger    *slog.Logger
}

func NewFallbackDialer(primary, secondary Dialer, l *slog.Logger) *FallbackDialer {
	return &FallbackDialer{
		primary:   primary,
		secondary: secondary,
		logger:    logger.OrDefault(l),
	}
}

func (d *FallbackDialer) Name() string {
	return d.primary.Name() + "/" + d.secondary.Name()
}

func (d *FallbackDialer) Dial(ctx context.Context) (Conn, error) {
	conn, err := d.primary.Dial(ctx)
	if err == nil {
		return conn, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	d.logger.LogAttrs(ctx, slog.LevelWarn, "primary transport unavailable, falling back",
		logger.Transport(d.secondary.Name()),
		logger.Error(err),
	)
	conn, fallbackErr := d.secondary.Dial(ctx)
	if fallbackErr != nil {
		return nil, errors.Join(err, fallbackErr)
	}
	return conn, nil
}
