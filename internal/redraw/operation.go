package redraw

import (
	"fmt"
	"math"
)

// Screen is the set of primitive operations a redraw batch can drive.
// *grid.Grid implements it.
type Screen interface {
	CursorGoto(row, col int)
	Put(text string)
	EOLClear()
	Clear()
	ClearRegion(top, bottom, left, right int)
	SetScrollRegion(top, bottom, left, right int)
	Scroll(count int)
	RedrawFinish()
}

// Operation is one decoded redraw call.
type Operation interface {
	// Name returns the protocol name of the operation.
	Name() string
	// Apply performs the operation on the screen.
	Apply(s Screen)
}

// Protocol operation names.
const (
	NameCursorGoto      = "cursor_goto"
	NamePut             = "put"
	NameEOLClear        = "eol_clear"
	NameClear           = "clear"
	NameClearRegion     = "clear_region"
	NameSetScrollRegion = "set_scroll_region"
	NameScroll          = "scroll"
)

// CursorGoto moves the cursor.
type CursorGoto struct{ Row, Col int }

// Put writes one glyph at the cursor.
type Put struct{ Text string }

// EOLClear clears to the end of the cursor row.
type EOLClear struct{}

// Clear clears the scroll region.
type Clear struct{}

// ClearRegion clears an inclusive rectangle.
type ClearRegion struct{ Top, Bottom, Left, Right int }

// SetScrollRegion replaces the scroll region.
type SetScrollRegion struct{ Top, Bottom, Left, Right int }

// Scroll shifts the scroll region.
type Scroll struct{ Count int }

func (CursorGoto) Name() string      { return NameCursorGoto }
func (Put) Name() string             { return NamePut }
func (EOLClear) Name() string        { return NameEOLClear }
func (Clear) Name() string           { return NameClear }
func (ClearRegion) Name() string     { return NameClearRegion }
func (SetScrollRegion) Name() string { return NameSetScrollRegion }
func (Scroll) Name() string          { return NameScroll }

func (o CursorGoto) Apply(s Screen)      { s.CursorGoto(o.Row, o.Col) }
func (o Put) Apply(s Screen)             { s.Put(o.Text) }
func (EOLClear) Apply(s Screen)          { s.EOLClear() }
func (Clear) Apply(s Screen)             { s.Clear() }
func (o ClearRegion) Apply(s Screen)     { s.ClearRegion(o.Top, o.Bottom, o.Left, o.Right) }
func (o SetScrollRegion) Apply(s Screen) { s.SetScrollRegion(o.Top, o.Bottom, o.Left, o.Right) }
func (o Scroll) Apply(s Screen)          { s.Scroll(o.Count) }

// decoder builds an operation from one argument tuple.
type decoder func(args []any) (Operation, error)

// decoders maps every modeled operation name to its decoder.
// Names missing from the table are ignored.
var decoders = map[string]decoder{
	NameCursorGoto: func(args []any) (Operation, error) {
		v, err := ints(args, 2)
		if err != nil {
			return nil, err
		}
		return CursorGoto{Row: v[0], Col: v[1]}, nil
	},
	NamePut: func(args []any) (Operation, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("%w: want 1 argument, got %d", ErrBadArguments, len(args))
		}
		text, err := toString(args[0])
		if err != nil {
			return nil, err
		}
		return Put{Text: text}, nil
	},
	NameEOLClear: func([]any) (Operation, error) {
		return EOLClear{}, nil
	},
	NameClear: func([]any) (Operation, error) {
		return Clear{}, nil
	},
	NameClearRegion: func(args []any) (Operation, error) {
		v, err := ints(args, 4)
		if err != nil {
			return nil, err
		}
		return ClearRegion{Top: v[0], Bottom: v[1], Left: v[2], Right: v[3]}, nil
	},
	NameSetScrollRegion: func(args []any) (Operation, error) {
		v, err := ints(args, 4)
		if err != nil {
			return nil, err
		}
		return SetScrollRegion{Top: v[0], Bottom: v[1], Left: v[2], Right: v[3]}, nil
	},
	NameScroll: func(args []any) (Operation, error) {
		v, err := ints(args, 1)
		if err != nil {
			return nil, err
		}
		return Scroll{Count: v[0]}, nil
	},
}

// Known reports whether name is a modeled operation.
func Known(name string) bool {
	_, ok := decoders[name]
	return ok
}

func ints(args []any, n int) ([]int, error) {
	if len(args) < n {
		return nil, fmt.Errorf("%w: want %d arguments, got %d", ErrBadArguments, n, len(args))
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := toInt(args[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// toInt accepts every numeric type a msgpack decoder may produce.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		if n > math.MaxInt {
			return 0, fmt.Errorf("%w: %d overflows int", ErrBadArguments, n)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrBadArguments, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: %T is not a number", ErrBadArguments, v)
	}
}

func toString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return "", fmt.Errorf("%w: %T is not a string", ErrBadArguments, v)
	}
}
