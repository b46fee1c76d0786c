// Package inbox is the client-side cache of the current user's notifications
// and unread count.
//
// Store is the single owner of both values. Every read and write from the UI
// goes through it, and the realtime channel feeds pushes into it with
// ApplyPush. Fetches are coalesced: while a list (or count) request is in
// flight, every caller joins it and receives the same result. A successful
// fetch is reused for the cache TTL without touching the network.
//
// Mutations (mark read, delete, create) go to the backend first and are
// applied locally only after the backend confirmed them. A failed mutation
// leaves local state untouched, is recorded in Err and reported as false.
//
// The unread count is eventually consistent: local mutations adjust it
// optimistically after confirmation and invalidate its cache timestamp so the
// next FetchUnreadCount asks the backend.
//
//	store := inbox.New(api, inbox.WithLogger(log))
//	defer store.Close()
//
//	sub := store.Subscribe(ctx)
//	go func() {
//	    for msg := range sub.Receive(ctx) {
//	        render(msg.Data)
//	    }
//	}()
//
//	_, _ = store.FetchNotifications(ctx, 1, 20)
//	_, _ = store.FetchUnreadCount(ctx)
package inbox
