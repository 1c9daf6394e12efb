// Package reconcile keeps the mirrored window layout in step with the
// editor.
//
// The Coordinator listens on the event bus. Bursts of win-created events
// collapse, through a trailing Debouncer, into one metadata pass fired a
// quiet period after the last event. Each pass publishes SyncStarted, queries
// every open window, swaps in a fresh Layout and publishes SyncFinished.
// buf-enter events go through a Grouper that keeps the last event per buffer
// within each short window and republishes it as BufferSettled.
//
// The Layout is replaced as a whole and never modified in place, so a
// reader sees either the previous complete map or the next one.
package reconcile
