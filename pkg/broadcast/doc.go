// Package broadcast fans typed messages out to many subscribers.
//
//	b := broadcast.NewMemoryBroadcaster[string](10)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	b.Broadcast(ctx, broadcast.Message[string]{ID: "1", Data: "hello"})
//	for msg := range sub.Receive() {
//		fmt.Println(msg.ID, msg.Data)
//	}
//
// A subscription ends when its context is done, when it is closed, when its
// buffer overflows, or when the broadcaster is disconnected or closed. In
// every case the Receive channel is closed.
package broadcast
