// Package httpserver runs an http.Handler with graceful shutdown.
//
// Server.Run listens on the configured address and serves until the context
// is cancelled, SIGINT/SIGTERM arrives or Shutdown is called. Shutdown is
// bounded by the shutdown timeout. Request contexts are cancelled as soon as
// shutdown begins, which is what ends long-lived websocket handlers; drain
// hooks run at the same moment and stop hooks run once the server is down.
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithDrainHook(func(*slog.Logger) { feed.Close() }),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// HealthCheckHandler serves liveness and readiness probes. Run wraps listen
// errors with ErrStart and Shutdown wraps shutdown errors with ErrShutdown.
package httpserver
