// Package notifications is the client side of the marketplace notification
// system: it receives pushed notifications for a signed-in session, keeps an
// in-memory inbox and drives whatever renders it.
//
// # Architecture
//
//   - Client: the JSON endpoints (recent list, mark-read, mark-all-read,
//     unread count) and the stream URL
//   - Inbox: unread-first bookkeeping, deduplicated by ID
//   - Presenter: the rendering surface (toast, badge, panel, banner, login redirect)
//   - Manager: wires a pushchannel.Channel to the inbox and the presenter
//
// # Basic Usage
//
//	client, err := notifications.NewClient("https://market.example.com",
//	    notifications.WithCSRFToken(token),
//	    notifications.WithClientCookie(session),
//	)
//	if err != nil {
//	    return err
//	}
//
//	transport := pushchannel.NewSSETransport(sse.NewClient(sse.WithCookie(session)))
//	mgr := notifications.NewManager(client, transport, presenter,
//	    notifications.WithPagePath(func() string { return currentPath }),
//	)
//	defer mgr.Close()
//
//	if err := mgr.Start(ctx); err != nil {
//	    return err
//	}
//
// Pushed payloads are either a single notification object, an array of them
// or {"error": "..."}; error payloads are logged and dropped. New entries are
// toasted and the badge is re-rendered. A stream rejected for lack of a
// session redirects to the login page with the current path as "next"; a
// connection that exhausts its retries shows FailureMessage.
//
// Marking read is confirmed by the server before the local entry changes.
// Read entries are evicted when the panel closes.
package notifications
