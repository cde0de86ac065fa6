package notice

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRecorderDrain(t *testing.T) {
	var rec Recorder
	if got := rec.Drain(); got == nil || len(got) != 0 {
		t.Errorf("Drain() on empty recorder = %v, want empty non-nil", got)
	}

	rec.Notify(Notice{Level: Success, Code: "item_removed", Message: "Item removed"})
	rec.Notify(Notice{Level: Error, Code: "cart_load_failed", Message: "Failed to load cart"})

	want := []Notice{
		{Level: Success, Code: "item_removed", Message: "Item removed"},
		{Level: Error, Code: "cart_load_failed", Message: "Failed to load cart"},
	}
	if diff := cmp.Diff(want, rec.Notices()); diff != "" {
		t.Errorf("Notices() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, rec.Drain()); diff != "" {
		t.Errorf("Drain() mismatch (-want +got):\n%s", diff)
	}
	if len(rec.Notices()) != 0 {
		t.Error("Drain() should clear the recorder")
	}
}

func TestLogNotifierLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	LogNotifier{Logger: logger}.Notify(Notice{Level: Warning, Code: "coupon_dropped", Message: "Coupon removed"})

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "notice=coupon_dropped") {
		t.Errorf("log output = %q", out)
	}
}

func TestMultiAndContextRecorder(t *testing.T) {
	var a, b Recorder
	Multi(&a, &b, Discard).Notify(Notice{Level: Info, Message: "hi"})
	if len(a.Notices()) != 1 || len(b.Notices()) != 1 {
		t.Error("Multi should deliver to every notifier")
	}

	if RecorderFrom(context.Background()) != nil {
		t.Error("RecorderFrom on bare context should be nil")
	}
	ctx := WithRecorder(context.Background(), &a)
	if RecorderFrom(ctx) != &a {
		t.Error("RecorderFrom should return the attached recorder")
	}
}
