package nvim

import (
	"context"
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/neovim/go-client/nvim"
	"go.uber.org/zap"

	"github.com/dshills/neomirror/internal/event"
	"github.com/dshills/neomirror/internal/grid"
	"github.com/dshills/neomirror/internal/reconcile"
	"github.com/dshills/neomirror/internal/statusline"
)

//go:embed helpers.lua
var helpersLua string

// RedrawMethod is the notification method carrying redraw batches.
const RedrawMethod = "redraw"

// Handler receives every redraw batch and lifecycle notification, in the
// order the editor sent them.
type Handler func(method string, args []any)

// Config selects how to reach the editor.
type Config struct {
	// Path of the editor binary. Used when Socket is empty.
	Path string

	// Args passed to the editor. --embed is appended when missing.
	Args []string

	// Socket of an already running editor. Takes precedence over Path.
	Socket string

	Logger *zap.Logger
}

// Session is one msgpack-RPC connection to the editor.
type Session struct {
	v   *nvim.Nvim
	id  string
	log *zap.Logger

	closed atomic.Bool
}

// Spawn starts the editor as a child process and connects to it over its
// standard streams. Dial is used instead when cfg.Socket is set.
func Spawn(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Socket != "" {
		return Dial(ctx, cfg)
	}
	if cfg.Path == "" {
		return nil, ErrNoEditor
	}

	log := logger(cfg)
	args := slices.Clone(cfg.Args)
	if !slices.Contains(args, "--embed") {
		args = append(args, "--embed")
	}

	v, err := nvim.NewChildProcess(
		nvim.ChildProcessCommand(cfg.Path),
		nvim.ChildProcessArgs(args...),
		nvim.ChildProcessContext(ctx),
		nvim.ChildProcessLogf(log.Sugar().Debugf),
	)
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", cfg.Path, err)
	}
	log.Info("editor spawned", zap.String("path", cfg.Path), zap.Strings("args", args))
	return newSession(v, log), nil
}

// Dial connects to a running editor listening on cfg.Socket.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Socket == "" {
		return nil, ErrNoEditor
	}

	log := logger(cfg)
	v, err := nvim.Dial(cfg.Socket,
		nvim.DialContext(ctx),
		nvim.DialLogf(log.Sugar().Debugf),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Socket, err)
	}
	log.Info("editor connected", zap.String("socket", cfg.Socket))
	return newSession(v, log), nil
}

func logger(cfg Config) *zap.Logger {
	if cfg.Logger == nil {
		return zap.NewNop()
	}
	return cfg.Logger.Named("nvim")
}

func newSession(v *nvim.Nvim, log *zap.Logger) *Session {
	id := uuid.NewString()[:8]
	return &Session{v: v, id: id, log: log.With(zap.String("session", id))}
}

// ID returns the token prefixing every window identity of this session.
func (s *Session) ID() string {
	return s.id
}

// do runs fn against the client, giving up when ctx ends. go-client calls
// take no context, so an abandoned call finishes in the background.
func (s *Session) do(ctx context.Context, fn func(v *nvim.Nvim) error) error {
	if s.closed.Load() {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- fn(s.v) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Configure loads the editor-side helpers and applies the settings the
// mirror relies on: absolute line numbers in a gutter of
// lineNumberColumns, no wrapping, no pager, and the tagged status line.
func (s *Session) Configure(ctx context.Context, lineNumberColumns int) error {
	return s.do(ctx, func(v *nvim.Nvim) error {
		if err := v.ExecLua(helpersLua, nil, s.id); err != nil {
			return fmt.Errorf("load helpers: %w", err)
		}
		for _, cmd := range settings(lineNumberColumns) {
			if err := v.Command(cmd); err != nil {
				return fmt.Errorf("%s: %w", cmd, err)
			}
		}
		return nil
	})
}

func settings(lineNumberColumns int) []string {
	return []string{
		"se nu",
		"se norelativenumber",
		fmt.Sprintf("se numberwidth=%d", lineNumberColumns),
		"se hidden",
		"se nomore",
		"se nowrap",
		statusline.Command(),
	}
}

// RegisterEvents routes redraw batches and lifecycle notifications to h
// and installs the autocmds that raise the lifecycle notifications.
// Configure must run first.
func (s *Session) RegisterEvents(ctx context.Context, h Handler) error {
	return s.do(ctx, func(v *nvim.Nvim) error {
		err := v.RegisterHandler(RedrawMethod, func(updates ...[]interface{}) {
			batch := make([]any, len(updates))
			for i, u := range updates {
				batch[i] = u
			}
			h(RedrawMethod, batch)
		})
		if err != nil {
			return fmt.Errorf("register %s: %w", RedrawMethod, err)
		}

		for _, topic := range event.LifecycleTopics {
			method := string(topic)
			err := v.RegisterHandler(method, func(args ...interface{}) {
				h(method, args)
			})
			if err != nil {
				return fmt.Errorf("register %s: %w", method, err)
			}
			if err := v.Subscribe(method); err != nil {
				return fmt.Errorf("subscribe %s: %w", method, err)
			}
		}

		if err := v.ExecLua("neomirror.register_events()", nil); err != nil {
			return fmt.Errorf("register autocmds: %w", err)
		}
		s.log.Debug("events registered", zap.Int("lifecycle", len(event.LifecycleTopics)))
		return nil
	})
}

// Attach registers as an external UI of the given size. Redraw batches
// start arriving after this returns.
func (s *Session) Attach(ctx context.Context, columns, rows int) error {
	return s.do(ctx, func(v *nvim.Nvim) error {
		if err := v.AttachUI(columns, rows, map[string]interface{}{"rgb": true}); err != nil {
			return fmt.Errorf("attach ui %dx%d: %w", columns, rows, err)
		}
		return nil
	})
}

// ListWindows returns the handles of all open windows.
func (s *Session) ListWindows(ctx context.Context) ([]reconcile.WindowHandle, error) {
	var wins []nvim.Window
	err := s.do(ctx, func(v *nvim.Nvim) error {
		var err error
		wins, err = v.Windows()
		return err
	})
	if err != nil {
		return nil, err
	}

	handles := make([]reconcile.WindowHandle, len(wins))
	for i, w := range wins {
		handles[i] = reconcile.WindowHandle(w)
	}
	return handles, nil
}

// DescribeWindow reads one window's metadata in a single batch.
func (s *Session) DescribeWindow(ctx context.Context, w reconcile.WindowHandle) (event.WindowDetail, error) {
	var (
		pos    [2]int
		width  int
		height int
		buf    nvim.Buffer
		id     string
		number int
	)
	win := nvim.Window(w)
	err := s.do(ctx, func(v *nvim.Nvim) error {
		b := v.NewBatch()
		b.WindowPosition(win, &pos)
		b.WindowWidth(win, &width)
		b.WindowHeight(win, &height)
		b.WindowBuffer(win, &buf)
		b.ExecLua("return neomirror.window_id(...)", &id, win)
		b.Call("getwinvar", &number, win, "&number")
		return b.Execute()
	})
	if err != nil {
		return event.WindowDetail{}, fmt.Errorf("window %d: %w", w, err)
	}

	return event.WindowDetail{
		WindowID:           id,
		BufferNumber:       int(buf),
		Position:           grid.Point{Row: pos[0], Column: pos[1]},
		Width:              width,
		Height:             height,
		LineNumbersEnabled: number != 0,
	}, nil
}

// Input sends keys as if typed.
func (s *Session) Input(ctx context.Context, keys string) error {
	return s.do(ctx, func(v *nvim.Nvim) error {
		_, err := v.Input(keys)
		return err
	})
}

// BufferText returns the current buffer's lines joined by newlines.
func (s *Session) BufferText(ctx context.Context) (string, error) {
	var lines [][]byte
	err := s.do(ctx, func(v *nvim.Nvim) error {
		buf, err := v.CurrentBuffer()
		if err != nil {
			return err
		}
		lines, err = v.BufferLines(buf, 0, -1, true)
		return err
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.Write(l)
	}
	return sb.String(), nil
}

// Close ends the session. A spawned editor is terminated.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.log.Debug("closing session")
	return s.v.Close()
}
