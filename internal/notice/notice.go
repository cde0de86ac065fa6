// Package notice carries user-facing messages produced by storefront
// actions ("Item removed", "Coupon applied! You save $10.00") to whatever
// presents them: a terminal, a log, or a gateway response.
package notice

import (
	"context"
	"log/slog"
	"sync"
)

// Level is the severity of a notice.
type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Warning Level = "warning"
	Error   Level = "error"
)

// Notice is one message for the user. Code is stable for programmatic
// consumers; Message is display text.
type Notice struct {
	Level   Level  `json:"type"`
	Code    string `json:"code"`
	Message string `json:"content"`
}

// Notifier presents notices. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(n Notice)
}

// Func adapts a function to Notifier.
type Func func(Notice)

func (f Func) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Notifier = Func(func(Notice) {})

// Recorder collects notices in order.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of everything recorded so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Drain returns and clears the recorded notices.
func (r *Recorder) Drain() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}

// LogNotifier writes notices to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(n Notice) {
	level := slog.LevelInfo
	switch n.Level {
	case Warning:
		level = slog.LevelWarn
	case Error:
		level = slog.LevelError
	}
	l.Logger.Log(context.Background(), level, n.Message,
		slog.String("notice", n.Code),
		slog.String("level", string(n.Level)),
	)
}

// Multi fans a notice out to several notifiers.
func Multi(notifiers ...Notifier) Notifier {
	return Func(func(n Notice) {
		for _, nt := range notifiers {
			nt.Notify(n)
		}
	})
}

type scopedKey struct{}

// WithRecorder returns a context carrying rec. Components that emit
// notices also deliver them to the context's recorder, so a gateway
// response can echo the notices of its own request.
func WithRecorder(ctx context.Context, rec *Recorder) context.Context {
	return context.WithValue(ctx, scopedKey{}, rec)
}

// RecorderFrom returns the request-scoped recorder, if any.
func RecorderFrom(ctx context.Context) *Recorder {
	rec, _ := ctx.Value(scopedKey{}).(*Recorder)
	return rec
}

// Deliver sends n to base and to the context's recorder, if any.
func Deliver(ctx context.Context, base Notifier, n Notice) {
	if base != nil {
		base.Notify(n)
	}
	if rec := RecorderFrom(ctx); rec != nil {
		rec.Notify(n)
	}
}
