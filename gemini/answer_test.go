package gemini

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

func TestStabilize_StableText(t *testing.T) {
	// WHAT: text unchanged across two reads spaced by the pause is returned.
	read := func() (string, error) { return "done", nil }
	got, err := stabilize(context.Background(), read, time.Second, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if got != "done" {
		t.Errorf("got %q", got)
	}
}

func TestStabilize_WaitsForChange(t *testing.T) {
	// WHAT: streaming text settles once the source stops changing.
	var n atomic.Int64
	read := func() (string, error) {
		v := n.Add(1)
		if v < 4 {
			return "partial " + strconv.FormatInt(v, 10), nil
		}
		return "final answer", nil
	}
	got, err := stabilize(context.Background(), read, 5*time.Second, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if got != "final answer" {
		t.Errorf("got %q", got)
	}
}

func TestStabilize_TimeoutReturnsPartial(t *testing.T) {
	// WHAT: a never-settling source yields the last partial, not an error.
	var n atomic.Int64
	read := func() (string, error) {
		return "tick " + strconv.FormatInt(n.Add(1), 10), nil
	}
	got, err := stabilize(context.Background(), read, 30*time.Millisecond, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Error("expected best-effort partial text")
	}
}

func TestStabilize_NothingToRead(t *testing.T) {
	// WHAT: an empty source yields an empty string after the window closes.
	read := func() (string, error) { return "", nil }
	got, err := stabilize(context.Background(), read, 20*time.Millisecond, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("got %q", got)
	}
}

func TestStabilize_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	read := func() (string, error) { return "", nil }
	if _, err := stabilize(ctx, read, time.Second, time.Millisecond); err == nil {
		t.Fatal("expected context error")
	}
}
