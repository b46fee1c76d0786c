// Package notifications holds the notification domain model shared by the
// client SDK and the reference backend.
//
// The wire model is Notification (camelCase JSON). Type, Category and
// Priority are closed sets; Validate rejects items the inbox cannot render
// and DecodeList drops such items from a list payload, reporting how many
// were dropped instead of failing the whole page. StyleFor resolves the
// visual style of a notification through explicit lookup tables, category
// first, then type, then a neutral default.
//
// The backend side of the package is a small persistence and delivery
// pipeline:
//
//	storage := notifications.NewMemoryStorage()
//	deliverer := notifications.NewBroadcastDeliverer(32)
//	manager := notifications.NewManager(storage, deliverer)
//
//	n, err := manager.Send(ctx, notifications.CreateRequest{
//	    UserID:  "user-1",
//	    Title:   "Goal achieved",
//	    Message: "10k steps today",
//	    Type:    notifications.TypeGoalAchieved,
//	})
//
//	sub := deliverer.Subscribe(ctx, "user-1")
//	for msg := range sub.Receive(ctx) {
//	    // push msg.Data to the user's socket
//	}
//
// Storage has two implementations: MemoryStorage for development and tests,
// and RedisStorage which keeps one hash per user. Manager persists first and
// delivers best effort, so a failed push never loses a notification.
package notifications
