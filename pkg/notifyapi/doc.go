// Package notifyapi is the HTTP client for the notification REST API and the
// session endpoint used to resolve the current identity.
//
// Authentication rides on an HttpOnly session cookie, so the client always
// carries a cookie jar. The same jar is handed to the realtime dialer so the
// push connection is authenticated by the same session:
//
//	api, err := notifyapi.New("https://app.example.com/api")
//	if err != nil {
//	    return err
//	}
//	list, err := api.List(ctx, 1, 20)
//
// Every response is wrapped in an Envelope. Non-2xx responses become a
// *StatusError; errors.Is matches ErrNotFound for 404 and ErrUnauthorized for
// 401. Lists are decoded leniently: invalid items are dropped and logged.
package notifyapi
