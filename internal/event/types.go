package event

import (
	"fmt"
	"strconv"

	"github.com/dshills/neomirror/internal/grid"
)

// Topic is the key messages are published under. Editor notifications use
// their method name as topic; messages produced locally use the reserved
// topics below.
type Topic string

// Lifecycle topics, one per editor autocmd notification.
const (
	TopicBufRead      Topic = "buf-read"
	TopicBufNewFile   Topic = "buf-new-file"
	TopicBufDelete    Topic = "buf-delete"
	TopicBufEnter     Topic = "buf-enter"
	TopicBufWritePost Topic = "buf-write-post"
	TopicWinCreated   Topic = "win-created"
	TopicBufAddEmpty  Topic = "buf-add-empty"
)

// Topics published by the reconciliation layer.
const (
	TopicSyncStarted   Topic = "window-sync-start"
	TopicSyncFinished  Topic = "window-sync-finish"
	TopicBufferSettled Topic = "buffer-settled"
)

// LifecycleTopics lists every lifecycle notification method, in the order
// the editor-side autocmds are registered.
var LifecycleTopics = []Topic{
	TopicBufRead,
	TopicBufNewFile,
	TopicBufDelete,
	TopicBufEnter,
	TopicBufWritePost,
	TopicWinCreated,
	TopicBufAddEmpty,
}

// IsLifecycle reports whether t names a lifecycle notification.
func IsLifecycle(t Topic) bool {
	for _, lt := range LifecycleTopics {
		if lt == t {
			return true
		}
	}
	return false
}

// Message is a value carried by the bus.
//
// The concrete types are Lifecycle, Notification, SyncStarted,
// SyncFinished and BufferSettled.
type Message interface {
	Topic() Topic
}

// Lifecycle is an editor lifecycle event.
type Lifecycle struct {
	Kind         Topic
	WindowID     string
	BufferNumber int
	BufferName   string
	FilePath     string
}

// Topic implements Message.
func (l Lifecycle) Topic() Topic { return l.Kind }

// Notification is any editor notification without a typed payload.
type Notification struct {
	Method string
	Args   []any
}

// Topic implements Message.
func (n Notification) Topic() Topic { return Topic(n.Method) }

// WindowDetail is a snapshot of one editor window.
type WindowDetail struct {
	WindowID           string
	BufferNumber       int
	Position           grid.Point
	Width              int
	Height             int
	LineNumbersEnabled bool
}

// Layout maps window identity to window detail. A Layout is never mutated
// after it is published; a new pass publishes a new map.
type Layout map[string]WindowDetail

// SyncStarted is published before a window metadata pass queries the editor.
// Renderers should hold redraw application until the matching SyncFinished.
type SyncStarted struct {
	Pass uint64
}

// Topic implements Message.
func (SyncStarted) Topic() Topic { return TopicSyncStarted }

// SyncFinished is published when a pass completes. On failure Err is set
// and Windows holds the previous layout.
type SyncFinished struct {
	Pass    uint64
	Windows Layout
	Err     error
}

// Topic implements Message.
func (SyncFinished) Topic() Topic { return TopicSyncFinished }

// BufferSettled is the last buf-enter for a buffer within one grouping window.
type BufferSettled struct {
	Lifecycle
}

// Topic implements Message.
func (BufferSettled) Topic() Topic { return TopicBufferSettled }

// ParseLifecycle decodes the payload of a lifecycle notification.
//
// The payload is [windowId, bufferNumber, bufferName, filePath]. A nested
// form [[windowId, bufferNumber, bufferName], filePath] is also accepted.
// Trailing fields may be missing; win-created only carries the first two.
func ParseLifecycle(method string, args []any) (Lifecycle, error) {
	kind := Topic(method)
	if !IsLifecycle(kind) {
		return Lifecycle{}, fmt.Errorf("%w: %q", ErrUnknownTopic, method)
	}

	fields := flatten(args)
	if len(fields) < 2 {
		return Lifecycle{}, fmt.Errorf("%w: %s has %d fields", ErrBadPayload, method, len(fields))
	}

	windowID, err := toID(fields[0])
	if err != nil {
		return Lifecycle{}, fmt.Errorf("%w: %s window id: %v", ErrBadPayload, method, err)
	}
	bufnr, err := toInt(fields[1])
	if err != nil {
		return Lifecycle{}, fmt.Errorf("%w: %s buffer number: %v", ErrBadPayload, method, err)
	}

	ev := Lifecycle{Kind: kind, WindowID: windowID, BufferNumber: bufnr}
	if len(fields) > 2 {
		ev.BufferName = toText(fields[2])
	}
	if len(fields) > 3 {
		ev.FilePath = toText(fields[3])
	}
	return ev, nil
}

func flatten(args []any) []any {
	if len(args) == 0 {
		return nil
	}
	head, ok := args[0].([]any)
	if !ok {
		return args
	}
	out := make([]any, 0, len(head)+len(args)-1)
	out = append(out, head...)
	// The nested form carries only the ids in the head, so the file path
	// is the last field whatever the head length.
	for len(out) < 3 && len(args) > 1 {
		out = append(out, "")
	}
	return append(out, args[1:]...)
}

func toID(v any) (string, error) {
	switch id := v.(type) {
	case string:
		return id, nil
	case []byte:
		return string(id), nil
	default:
		n, err := toInt(v)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(n), nil
	}
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case int32:
		return int(n), nil
	case int16:
		return int(n), nil
	case int8:
		return int(n), nil
	case uint64:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("%T is not a number", v)
	}
}

func toText(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}
