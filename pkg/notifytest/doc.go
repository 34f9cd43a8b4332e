// Package notifytest runs an in-process fake of the marketplace notification
// endpoints for tests: the push stream, the recent list, mark-read,
// mark-all-read and the unread counter.
//
//	srv := notifytest.NewServer(notifytest.WithCSRFToken("token"))
//	defer srv.Close()
//
//	client, _ := notifications.NewClient(srv.URL, notifications.WithCSRFToken("token"))
//	...
//	srv.Publish(notifications.Notification{Title: "Hi"})
//	srv.DropConnections()
//	srv.SetUnauthorized(true)
//
// It is test tooling only and keeps everything in memory.
package notifytest
