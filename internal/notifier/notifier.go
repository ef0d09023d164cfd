// Package notifier fans a message out to every configured channel with
// rate limiting, bounded retries, and duplicate suppression.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"fplremind/internal/storage"
	"fplremind/internal/transport"
	logx "fplremind/pkg/logx"
)

type Config struct {
	RatePerSec  float64
	RetryMax    int
	DedupWindow time.Duration
}

// Message is one notification to broadcast. DedupKey, when set, suppresses
// a repeat send within the dedup window, so a restarted process does not
// notify the same deadline twice.
type Message struct {
	Kind     string // "day", "hour" or "summary"
	Gameweek int
	DedupKey string
	Text     string
}

type Notifier struct {
	log      logx.Logger
	cfg      Config
	channels []transport.Channel
	limiter  *rate.Limiter
	store    storage.Store

	// in-memory dedup fallback when persistence is disabled
	mu  sync.Mutex
	mem map[string]time.Time
}

func New(cfg Config, channels []transport.Channel, store storage.Store, log logx.Logger) *Notifier {
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 3
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = 24 * time.Hour
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Notifier{
		log:      log,
		cfg:      cfg,
		channels: channels,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		store:    store,
		mem:      map[string]time.Time{},
	}
}

// Send broadcasts msg to all channels. It returns nil if at least one
// channel accepted the message; a duplicate is also nil.
func (n *Notifier) Send(ctx context.Context, msg Message) error {
	if len(n.channels) == 0 {
		return errors.New("no channels configured")
	}
	if msg.DedupKey != "" {
		dup, err := n.seen(ctx, msg.DedupKey)
		if err != nil {
			n.log.Warn("dedup lookup failed", logx.String("key", msg.DedupKey), logx.Err(err))
		} else if dup {
			n.log.Info("duplicate suppressed", logx.String("key", msg.DedupKey))
			return nil
		}
	}

	var delivered int
	var lastErr error
	for _, ch := range n.channels {
		if err := n.limiter.Wait(ctx); err != nil {
			return err
		}
		start := time.Now()
		err := n.sendOne(ctx, ch, msg.Text)
		took := time.Since(start)

		rec := storage.DeliveryRecord{
			At:       start,
			Channel:  ch.Name(),
			Kind:     msg.Kind,
			Gameweek: msg.Gameweek,
			OK:       err == nil,
			TookMS:   took.Milliseconds(),
		}
		if err != nil {
			rec.Error = err.Error()
			lastErr = err
			n.log.Warn("delivery failed",
				logx.String("channel", ch.Name()),
				logx.String("kind", msg.Kind),
				logx.Int("gw", msg.Gameweek),
				logx.Err(err))
		} else {
			delivered++
			n.log.Info("delivered",
				logx.String("channel", ch.Name()),
				logx.String("kind", msg.Kind),
				logx.Int("gw", msg.Gameweek),
				logx.Duration("took", took))
		}
		if n.store != nil {
			if serr := n.store.AppendDelivery(ctx, rec); serr != nil {
				n.log.Warn("delivery record not persisted", logx.Err(serr))
			}
		}
	}

	if delivered == 0 {
		return fmt.Errorf("all channels failed: %w", lastErr)
	}
	if msg.DedupKey != "" {
		n.mark(ctx, msg.DedupKey, time.Now().Add(n.cfg.DedupWindow))
	}
	return nil
}

func (n *Notifier) sendOne(ctx context.Context, ch transport.Channel, text string) error {
	var err error
	for i := 0; i < n.cfg.RetryMax; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(200+100*i) * time.Millisecond):
			}
		}
		if err = ch.Send(ctx, text); err == nil {
			return nil
		}
	}
	return err
}

func (n *Notifier) seen(ctx context.Context, key string) (bool, error) {
	if n.store != nil {
		until, ok, err := n.store.GetDedup(ctx, key)
		if err != nil {
			return false, err
		}
		return ok && time.Now().Before(until), nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	until, ok := n.mem[key]
	return ok && time.Now().Before(until), nil
}

func (n *Notifier) mark(ctx context.Context, key string, until time.Time) {
	if n.store != nil {
		if err := n.store.PutDedup(ctx, key, until); err != nil {
			n.log.Warn("dedup mark not persisted", logx.String("key", key), logx.Err(err))
		}
		return
	}
	n.mu.Lock()
	n.mem[key] = until
	n.mu.Unlock()
}
