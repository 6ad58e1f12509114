package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorFaint  = "\033[2m"
	colorBold   = "\033[1m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// prettyHandler renders records as single-line coloured terminal output:
//
//	15:04:05 INF repository indexed repo_id=3 snippets=412
type prettyHandler struct {
	out    io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
	prefix []string
	mu     *sync.Mutex
}

func newPrettyHandler(w io.Writer, level slog.Leveler) *prettyHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &prettyHandler{out: w, level: level, mu: &sync.Mutex{}}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	fmt.Fprintf(&buf, "%s%s%s ", colorFaint, ts.Format("15:04:05"), colorReset)

	color, label := levelTag(r.Level)
	fmt.Fprintf(&buf, "%s%s%s ", color, label, colorReset)
	fmt.Fprintf(&buf, "%s%s%s", colorBold, r.Message, colorReset)

	for _, a := range h.attrs {
		h.writeAttr(&buf, a, h.prefix)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&buf, a, h.prefix)
		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf.Bytes())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &prettyHandler{out: h.out, level: h.level, attrs: merged, prefix: h.prefix, mu: h.mu}
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	prefix := append(append([]string{}, h.prefix...), name)
	return &prettyHandler{out: h.out, level: h.level, attrs: h.attrs, prefix: prefix, mu: h.mu}
}

func (h *prettyHandler) writeAttr(buf *bytes.Buffer, a slog.Attr, prefix []string) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		nested := prefix
		if a.Key != "" {
			nested = append(append([]string{}, prefix...), a.Key)
		}
		for _, ga := range a.Value.Group() {
			h.writeAttr(buf, ga, nested)
		}
		return
	}

	buf.WriteByte(' ')
	buf.WriteString(colorFaint)
	for _, p := range prefix {
		buf.WriteString(p)
		buf.WriteByte('.')
	}
	buf.WriteString(a.Key)
	buf.WriteByte('=')
	buf.WriteString(colorReset)
	buf.WriteString(quoteValue(a.Value))
}

func levelTag(level slog.Level) (string, string) {
	switch {
	case level < slog.LevelInfo:
		return colorCyan, "DBG"
	case level < slog.LevelWarn:
		return colorGreen, "INF"
	case level < slog.LevelError:
		return colorYellow, "WRN"
	default:
		return colorRed, "ERR"
	}
}

func quoteValue(v slog.Value) string {
	s := v.String()
	if v.Kind() == slog.KindString && strings.ContainsAny(s, " \t\n\"\\") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
