// Package nvim connects to a headless editor over msgpack-RPC.
//
// A Session spawns the editor with --embed (or dials a running one),
// configures it for mirroring, installs lifecycle autocmds and attaches as
// an external UI. Redraw batches and lifecycle notifications are handed to
// a single Handler in arrival order. The outbound side answers the window
// metadata queries of the reconcile package.
//
// Window identities are assigned by editor-side helpers as
// "<session>-<n>" and kept in the w:nvim_window_name variable, so a window
// keeps its identity when the layout changes.
package nvim
