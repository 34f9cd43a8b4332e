// Package sse is a client for Server-Sent Events streams.
//
// Client.Connect performs the HTTP handshake and returns a Stream; Stream.Next
// yields one Event per dispatched message following the event stream
// format: "data" lines joined with newlines, "event", "id" and "retry"
// fields, comments, and any of CR, LF or CRLF as line terminator.
//
//	c := sse.NewClient(sse.WithCookie(sessionCookie))
//	stream, err := c.Connect(ctx, "https://example.com/notifications/stream/")
//	if sse.IsUnauthorized(err) {
//		// send the user to the login page, do not retry
//	}
//	defer stream.Close()
//	for {
//		ev, err := stream.Next()
//		if err != nil {
//			break // io.EOF when the server hangs up
//		}
//		handle(ev.Type, ev.Data)
//	}
//
// The package does not reconnect on its own; supervision belongs to the caller
// (see package pushchannel).
package sse
