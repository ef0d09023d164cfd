package notifier

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"fplremind/internal/storage"
	"fplremind/internal/transport"
	logx "fplremind/pkg/logx"
)

type fakeChannel struct {
	name  string
	calls atomic.Int32
	fail  int32 // fail the first N calls
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Send(ctx context.Context, text string) error {
	n := f.calls.Add(1)
	if n <= f.fail {
		return errors.New("boom")
	}
	return nil
}

func channels(chs ...*fakeChannel) []transport.Channel {
	out := make([]transport.Channel, 0, len(chs))
	for _, c := range chs {
		out = append(out, c)
	}
	return out
}

func TestSendFansOutToAllChannels(t *testing.T) {
	t.Parallel()
	tg := &fakeChannel{name: "telegram"}
	dc := &fakeChannel{name: "discord"}
	n := New(Config{RatePerSec: 100}, channels(tg, dc), nil, logx.Nop())

	if err := n.Send(context.Background(), Message{Kind: "day", Gameweek: 7, Text: "x"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if tg.calls.Load() != 1 || dc.calls.Load() != 1 {
		t.Fatalf("calls = %d/%d, want 1/1", tg.calls.Load(), dc.calls.Load())
	}
}

func TestSendRetriesThenSucceeds(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{name: "telegram", fail: 2}
	n := New(Config{RatePerSec: 100, RetryMax: 3}, channels(ch), nil, logx.Nop())

	if err := n.Send(context.Background(), Message{Kind: "hour", Gameweek: 7, Text: "x"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := ch.calls.Load(); got != 3 {
		t.Fatalf("attempts = %d, want 3", got)
	}
}

func TestSendFailsWhenAllChannelsFail(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{name: "telegram", fail: 99}
	n := New(Config{RatePerSec: 100, RetryMax: 2}, channels(ch), nil, logx.Nop())

	if err := n.Send(context.Background(), Message{Kind: "day", Gameweek: 7, Text: "x"}); err == nil {
		t.Fatal("expected error when every channel fails")
	}
}

func TestDedupSuppressesRepeat(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{name: "telegram"}
	n := New(Config{RatePerSec: 100, DedupWindow: time.Hour}, channels(ch), nil, logx.Nop())

	msg := Message{Kind: "day", Gameweek: 7, DedupKey: "day:gw7", Text: "x"}
	ctx := context.Background()
	if err := n.Send(ctx, msg); err != nil {
		t.Fatalf("first Send: %v", err)
	}
	if err := n.Send(ctx, msg); err != nil {
		t.Fatalf("second Send: %v", err)
	}
	if got := ch.calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1 (duplicate suppressed)", got)
	}
}

func TestDedupNotMarkedOnTotalFailure(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{name: "telegram", fail: 2}
	n := New(Config{RatePerSec: 100, RetryMax: 1, DedupWindow: time.Hour}, channels(ch), nil, logx.Nop())

	msg := Message{Kind: "summary", Gameweek: 7, DedupKey: "summary:gw7", Text: "x"}
	ctx := context.Background()
	if err := n.Send(ctx, msg); err == nil {
		t.Fatal("expected first Send to fail")
	}
	// Channel recovers; the retry must not be treated as a duplicate.
	if err := n.Send(ctx, msg); err != nil {
		t.Fatalf("second Send: %v", err)
	}
}

func TestDedupPersistsAcrossNotifiers(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "store")
	st, err := storage.Open(storage.Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	defer st.Close()

	ch := &fakeChannel{name: "telegram"}
	msg := Message{Kind: "day", Gameweek: 9, DedupKey: "day:gw9", Text: "x"}
	ctx := context.Background()

	n1 := New(Config{RatePerSec: 100, DedupWindow: time.Hour}, channels(ch), st, logx.Nop())
	if err := n1.Send(ctx, msg); err != nil {
		t.Fatalf("Send: %v", err)
	}

	// Fresh notifier sharing the store, as after a restart.
	n2 := New(Config{RatePerSec: 100, DedupWindow: time.Hour}, channels(ch), st, logx.Nop())
	if err := n2.Send(ctx, msg); err != nil {
		t.Fatalf("Send after restart: %v", err)
	}
	if got := ch.calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}
