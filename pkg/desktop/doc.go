// Package desktop provides permission-gated platform notifications.
//
// A Gate tracks the platform permission (granted, denied or default) and
// forwards Show calls to a Presenter only while permission is granted.
// Permission is requested solely through RequestPermission, which callers
// invoke in response to an explicit user interaction.
//
//	gate := desktop.NewGate(desktop.NewLogPresenter(log))
//	if _, err := gate.RequestPermission(ctx); err != nil {
//		return err
//	}
//	_ = gate.Show(ctx, "Goal achieved", "10k steps today")
package desktop
