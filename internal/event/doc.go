// Package event carries editor notifications and reconciliation results
// between components.
//
// Messages form a closed set of types (Lifecycle, Notification,
// SyncStarted, SyncFinished, BufferSettled), each published under a Topic.
// Lifecycle topics reuse the editor's notification method names:
//
//	buf-read, buf-new-file, buf-delete, buf-enter,
//	buf-write-post, win-created, buf-add-empty
//
// # Usage
//
//	bus := event.NewBus(logger)
//	sub, err := bus.Subscribe(event.TopicWinCreated, func(m event.Message) {
//	    ev := m.(event.Lifecycle)
//	    // ...
//	})
//	if err != nil {
//	    return err
//	}
//	defer sub.Cancel()
//
// Subscriptions belong to whoever created them; the bus holds no global
// state.
package event
