// Package redraw decodes redraw notifications into typed grid operations.
//
// Each known protocol name maps to a decoder in a fixed table; names that
// are not in the table are ignored so newer editors can add operations
// without breaking the mirror.
package redraw
