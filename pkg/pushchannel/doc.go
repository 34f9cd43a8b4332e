// Package pushchannel maintains a long-lived server push connection for a
// signed-in session and delivers decoded events to a single handler.
//
// A Channel moves through five states:
//
//	Disconnected --Start--> Connecting --opened--> Open
//	Connecting|Open --dropped--> Retrying      while reconnects remain
//	Connecting|Open --dropped--> Failed        once the budget is spent
//	Connecting --unauthorized--> Failed        and the auth hook fires
//	Retrying --timer--> Connecting
//	Retrying --page excluded--> Disconnected
//	any --Stop--> Disconnected
//
// A successful open resets the retry counter. Failed is terminal until Start
// is called again; no timer runs in that state.
//
// Basic usage:
//
//	ch := pushchannel.New[Notification](
//		pushchannel.NewSSETransport(sse.NewClient(sse.WithCookie(session))),
//		pushchannel.WithLogger(log),
//		pushchannel.WithFailureHook(showBanner),
//	)
//	unsubscribe := ch.OnEvent(func(ctx context.Context, n Notification) { ... })
//	defer unsubscribe()
//	if err := ch.Start(ctx, "https://app.example.com/notifications/stream/"); err != nil {
//		return err
//	}
//	defer ch.Stop()
//
// Payloads that fail to decode are logged and dropped; they never change the
// connection state. Only unnamed ("message") events reach the handler. The
// last event id seen is sent back on every reconnect.
//
// Hooks run outside the channel lock in the order their transitions
// happened. A PageGuard is called with the lock held and must not call back
// into the Channel.
package pushchannel
