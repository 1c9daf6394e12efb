package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/dshills/neomirror/internal/bridge"
	"github.com/dshills/neomirror/internal/event"
	"github.com/dshills/neomirror/internal/statusline"
)

var (
	dumpLayout bool
	dumpStatus bool
	dumpBuffer bool
	dumpKeys   string
	dumpSettle time.Duration
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the mirrored screen and exit",
	Long: `Starts Neovim, optionally sends keys, waits for the screen to settle
and prints the grid as text.

Examples:
  neomirror dump --keys 'ihello<Esc>'
  neomirror dump --layout
  neomirror dump --status`,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpLayout, "layout", false, "Print the window layout as JSON")
	dumpCmd.Flags().BoolVar(&dumpStatus, "status", false, "Print the decoded status lines as JSON")
	dumpCmd.Flags().BoolVar(&dumpBuffer, "buffer", false, "Print the current buffer instead of the screen")
	dumpCmd.Flags().StringVar(&dumpKeys, "keys", "", "Keys to send before dumping, in editor notation")
	dumpCmd.Flags().DurationVar(&dumpSettle, "settle", 200*time.Millisecond, "Time to wait for redraws before dumping")
}

func runDump(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	b, err := bridge.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open editor: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.Close(closeCtx); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}()

	if dumpKeys != "" {
		if err := b.Input(ctx, dumpKeys); err != nil {
			return fmt.Errorf("send keys: %w", err)
		}
	}
	if err := settle(ctx, dumpSettle); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case dumpLayout:
		layout, err := b.Sync(ctx)
		if err != nil {
			return fmt.Errorf("sync windows: %w", err)
		}
		doc, err := layoutJSON(layout)
		if err != nil {
			return err
		}
		return writeJSON(out, doc)

	case dumpStatus:
		doc, err := statusJSON(b.Statuses())
		if err != nil {
			return err
		}
		return writeJSON(out, doc)

	case dumpBuffer:
		text, err := b.BufferText(ctx)
		if err != nil {
			return fmt.Errorf("read buffer: %w", err)
		}
		_, err = fmt.Fprintln(out, text)
		return err

	default:
		_, err := fmt.Fprintln(out, b.CellsAsText())
		return err
	}
}

func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func writeJSON(w io.Writer, doc string) error {
	_, err := w.Write(pretty.Pretty([]byte(doc)))
	return err
}

// layoutJSON renders a layout keyed by window id, in id order.
func layoutJSON(layout event.Layout) (string, error) {
	ids := make([]string, 0, len(layout))
	for id := range layout {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	doc := `{"windows":{}}`
	var err error
	for _, id := range ids {
		w := layout[id]
		base := "windows." + escapePath(id)
		sets := []struct {
			path  string
			value any
		}{
			{"buffer", w.BufferNumber},
			{"row", w.Position.Row},
			{"column", w.Position.Column},
			{"width", w.Width},
			{"height", w.Height},
			{"lineNumbers", w.LineNumbersEnabled},
		}
		for _, s := range sets {
			if doc, err = sjson.Set(doc, base+"."+s.path, s.value); err != nil {
				return "", fmt.Errorf("encode window %s: %w", id, err)
			}
		}
	}
	if doc, err = sjson.Set(doc, "count", len(ids)); err != nil {
		return "", err
	}
	return doc, nil
}

// statusJSON renders status lines as an array in screen order.
func statusJSON(statuses []statusline.Status) (string, error) {
	doc := `{"statuses":[]}`
	var err error
	for i, st := range statuses {
		base := fmt.Sprintf("statuses.%d.", i)
		sets := []struct {
			path  string
			value any
		}{
			{"window", st.WindowID},
			{"buffer", st.BufferNumber},
			{"width", st.Width},
			{"height", st.Height},
			{"line", st.Line},
			{"column", st.Column},
			{"lineCount", st.LineCount},
			{"modified", st.Modified},
		}
		for _, s := range sets {
			if doc, err = sjson.Set(doc, base+s.path, s.value); err != nil {
				return "", fmt.Errorf("encode status %d: %w", i, err)
			}
		}
	}
	return doc, nil
}

var pathEscaper = strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)

// escapePath quotes characters that sjson treats as path syntax.
func escapePath(key string) string {
	return pathEscaper.Replace(key)
}
