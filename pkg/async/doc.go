// Package async provides a generic Future for running a computation in its
// own goroutine and collecting the result later.
//
// The inbox store exposes promise-style fetches on top of it:
//
//	f := async.Go(ctx, func(ctx context.Context) ([]notifications.Notification, error) {
//	    return store.FetchNotifications(ctx, 1, 20)
//	})
//	// ...
//	list, err := f.AwaitContext(ctx)
//
// If ctx is already cancelled when the goroutine starts, the function is not
// run and the Future completes with the context error.
package async
