package redraw

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dshills/neomirror/internal/grid"
)

// recorder is a Screen that logs every call.
type recorder struct {
	calls []string
}

func (r *recorder) CursorGoto(row, col int) { r.add("cursor_goto %d %d", row, col) }
func (r *recorder) Put(text string)         { r.add("put %q", text) }
func (r *recorder) EOLClear()               { r.add("eol_clear") }
func (r *recorder) Clear()                  { r.add("clear") }
func (r *recorder) ClearRegion(t, b, l, rt int) {
	r.add("clear_region %d %d %d %d", t, b, l, rt)
}
func (r *recorder) SetScrollRegion(t, b, l, rt int) {
	r.add("set_scroll_region %d %d %d %d", t, b, l, rt)
}
func (r *recorder) Scroll(count int) { r.add("scroll %d", count) }
func (r *recorder) RedrawFinish()    { r.add("finish") }

func (r *recorder) add(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func entry(name string, tuples ...[]any) []any {
	e := []any{name}
	for _, t := range tuples {
		e = append(e, t)
	}
	return e
}

func TestDispatcher_AppliesInOrder(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(rec, nil)

	err := d.Apply([]any{
		entry("cursor_goto", []any{int64(1), int64(2)}),
		entry("put", []any{"h"}, []any{"i"}),
		entry("eol_clear", []any{}),
		entry("set_scroll_region", []any{int64(0), int64(3), int64(0), int64(9)}),
		entry("scroll", []any{int64(-1)}),
		entry("clear_region", []any{uint64(1), uint64(1), uint64(0), uint64(4)}),
		entry("clear"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"cursor_goto 1 2",
		`put "h"`,
		`put "i"`,
		"eol_clear",
		"set_scroll_region 0 3 0 9",
		"scroll -1",
		"clear_region 1 1 0 4",
		"clear",
		"finish",
	}, rec.calls)
}

func TestDispatcher_UnknownOperationsIgnored(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(rec, nil)

	err := d.Apply([]any{
		entry("highlight_set", []any{map[string]any{"bold": true}}),
		entry("put", []any{"x"}),
		entry("mode_change", []any{"insert", int64(1)}),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{`put "x"`, "finish"}, rec.calls)
	assert.Equal(t, Stats{Batches: 1, Operations: 1, Unknown: 2}, d.Stats())
}

func TestDispatcher_EmptyBatch(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(rec, nil)

	require.NoError(t, d.Apply(nil))
	require.NoError(t, d.Apply([]any{}))

	assert.Empty(t, rec.calls)
	assert.Zero(t, d.Stats().Batches)
}

func TestDispatcher_FinishOncePerBatch(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(rec, nil)

	require.NoError(t, d.Apply([]any{entry("put", []any{"a"})}))
	require.NoError(t, d.Apply([]any{entry("bell")}))

	assert.Equal(t, []string{`put "a"`, "finish", "finish"}, rec.calls)
}

func TestDispatcher_MalformedTuplesSkipped(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(rec, nil)

	err := d.Apply([]any{
		entry("cursor_goto", []any{int64(1)}, []any{int64(0), int64(3)}),
		[]any{"put", "not-a-tuple", []any{"y"}},
		entry("scroll", []any{"two"}),
		"garbage",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadArguments)
	assert.ErrorIs(t, err, ErrBadEntry)

	var argErr *ArgError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "cursor_goto", argErr.Op)
	assert.Equal(t, 0, argErr.Index)

	assert.Equal(t, []string{"cursor_goto 0 3", `put "y"`, "finish"}, rec.calls)
	assert.Equal(t, uint64(1), d.Stats().Failures)
}

func TestDecode_NumericTypes(t *testing.T) {
	ops, err := Decode([]any{
		entry("cursor_goto", []any{int8(1), uint16(2)}),
		entry("cursor_goto", []any{float64(3), int32(4)}),
		entry("put", []any{[]byte("z")}),
	})
	require.NoError(t, err)

	assert.Equal(t, []Operation{
		CursorGoto{Row: 1, Col: 2},
		CursorGoto{Row: 3, Col: 4},
		Put{Text: "z"},
	}, ops)

	_, err = Decode([]any{entry("scroll", []any{1.5})})
	assert.ErrorIs(t, err, ErrBadArguments)
}

func TestKnown(t *testing.T) {
	for _, name := range []string{"cursor_goto", "eol_clear", "put", "scroll", "set_scroll_region", "clear", "clear_region"} {
		assert.True(t, Known(name), name)
	}
	assert.False(t, Known("resize"))
}

func TestDispatcher_RoundTrip(t *testing.T) {
	g, err := grid.New(4, 12, 0)
	require.NoError(t, err)
	d := NewDispatcher(g, nil)

	puts := func(s string) []any {
		e := []any{"put"}
		for _, r := range s {
			e = append(e, []any{string(r)})
		}
		return e
	}

	require.NoError(t, d.Apply([]any{
		entry("cursor_goto", []any{int64(0), int64(0)}),
		puts("hello world"),
		entry("cursor_goto", []any{int64(1), int64(2)}),
		puts("second"),
	}))
	assert.Equal(t, "hello world", g.RowText(0, 0, 12))
	assert.Equal(t, "  second", g.RowText(1, 0, 12))

	require.NoError(t, d.Apply([]any{
		entry("cursor_goto", []any{int64(0), int64(5)}),
		entry("eol_clear"),
		entry("clear_region", []any{int64(1), int64(1), int64(2), int64(4)}),
	}))
	assert.Equal(t, "hello", g.RowText(0, 0, 12))
	assert.Equal(t, "     ond", g.RowText(1, 0, 12))

	require.NoError(t, d.Apply([]any{
		entry("scroll", []any{int64(1)}),
	}))
	assert.Equal(t, "     ond", g.RowText(0, 0, 12))
	assert.Equal(t, "", g.RowText(3, 0, 12))
}

func TestDispatcher_FinishReachesGridListeners(t *testing.T) {
	g, err := grid.New(2, 2, 0)
	require.NoError(t, err)

	var finishes int
	g.Subscribe(func(c grid.Change) {
		if c.Kind == grid.ChangeFinish {
			finishes++
		}
	})

	d := NewDispatcher(g, nil)
	require.NoError(t, d.Apply([]any{entry("put", []any{"a"}), entry("put", []any{"b"})}))
	assert.Equal(t, 1, finishes)
}

func TestDispatcher_PutTextLoggedOnlyAtDebug(t *testing.T) {
	batch := []any{entry("put", []any{"h"}, []any{"i"})}

	core, logs := observer.New(zapcore.InfoLevel)
	d := NewDispatcher(&recorder{}, zap.New(core))
	require.NoError(t, d.Apply(batch))
	assert.Zero(t, logs.FilterMessage("put").Len())

	core, logs = observer.New(zapcore.DebugLevel)
	d = NewDispatcher(&recorder{}, zap.New(core))
	require.NoError(t, d.Apply(batch))
	puts := logs.FilterMessage("put").All()
	require.Len(t, puts, 1)
	assert.Equal(t, "hi", puts[0].ContextMap()["text"])
}
