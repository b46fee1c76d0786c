// Package toast implements the bounded queue of transient pop-up alerts.
//
// A Queue holds at most Capacity items (3 by default). Enqueueing into a full
// queue evicts the oldest item. Every item disappears on its own after its
// Duration; Pause freezes its countdown (for example while hovered) and Resume
// continues from exactly where it stopped. Remaining reports the visible
// progress in percent and is refreshed every Duration/100.
//
//	q := toast.NewQueue()
//	defer q.Close()
//
//	item := q.Enqueue(toast.FromNotification(n))
//	q.Pause(item.ID)
//	q.Resume(item.ID)
//
// Timers come from an injected clockwork.Clock, so tests drive time with a
// fake clock.
package toast
