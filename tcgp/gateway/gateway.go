// Package gateway is the durable write path between the game and the store.
// It rate-limits per-player writes, debounces reveal updates, and absorbs
// backend quota failures into a persisted retry queue.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/toto789520/TCGP-bis/tcgp/catalog"
	"github.com/toto789520/TCGP-bis/tcgp/config"
	"github.com/toto789520/TCGP-bis/tcgp/store"
)

type Options struct {
	MinWriteInterval time.Duration
	RevealDebounce   time.Duration
	BackoffBase      time.Duration
	BackoffCap       time.Duration
	MaxAttempts      int
}

func DefaultOptions() Options {
	return Options{
		MinWriteInterval: config.MinWriteInterval,
		RevealDebounce:   config.RevealDebounce,
		BackoffBase:      config.QueueBackoffBase,
		BackoffCap:       config.QueueBackoffCap,
		MaxAttempts:      config.QueueMaxAttempts,
	}
}

// Gateway serializes writes for all players. Quota failures are never
// surfaced; the write is queued, persisted, and retried in order by a single
// background flusher.
type Gateway struct {
	store store.Store
	qs    QueueStore
	opts  Options
	now   func() time.Time

	mu            sync.Mutex
	queue         []Entry
	lastWrite     map[string]time.Time
	pendingReveal map[string][]int
	revealTimer   *time.Timer
	flushTimer    *time.Timer
	flushing      bool
	flushAttempts int
}

func New(ctx context.Context, st store.Store, qs QueueStore, opts Options) (*Gateway, error) {
	g := &Gateway{
		store:         st,
		qs:            qs,
		opts:          opts,
		now:           time.Now,
		lastWrite:     make(map[string]time.Time),
		pendingReveal: make(map[string][]int),
	}

	queue, err := qs.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to restore write queue: %w", err)
	}
	g.queue = queue

	if len(queue) > 0 {
		slog.Info("Restored pending write queue",
			slog.String("type", "sys"),
			slog.Int("entries", len(queue)),
		)
		g.mu.Lock()
		g.scheduleFlushLocked(0)
		g.mu.Unlock()
	}
	return g, nil
}

// Write merge-writes a patch. Writes arriving inside the per-player rate
// window are redirected to the queue instead of hitting the store. Quota
// failures are queued silently; other store errors surface to the caller.
func (g *Gateway) Write(ctx context.Context, playerID string, patch store.Patch) error {
	if patch.Empty() {
		return nil
	}

	g.mu.Lock()
	if g.rateLimitedLocked(playerID) {
		g.enqueueLocked(Entry{
			PlayerID:  playerID,
			Kind:      OpMerge,
			Patch:     patch,
			CreatedAt: g.now(),
		})
		g.mu.Unlock()
		slog.Debug("Write rate limited", slog.String("player_id", playerID))
		return nil
	}
	g.lastWrite[playerID] = g.now()
	g.mu.Unlock()

	err := g.store.SavePlayer(ctx, playerID, patch)
	if err == nil {
		return nil
	}
	if !store.IsQuota(err) {
		return err
	}

	g.mu.Lock()
	g.enqueueLocked(Entry{
		PlayerID:  playerID,
		Kind:      OpMerge,
		Patch:     patch,
		CreatedAt: g.now(),
	})
	g.mu.Unlock()
	return nil
}

// AppendToCollection durably appends drawn cards, with the same rate-limit
// and quota semantics as Write. Queued appends for one player collapse into
// a single entry de-duplicated by instance id.
func (g *Gateway) AppendToCollection(ctx context.Context, playerID string, cards []catalog.Instance) error {
	if len(cards) == 0 {
		return nil
	}

	g.mu.Lock()
	if g.rateLimitedLocked(playerID) {
		g.enqueueLocked(Entry{
			PlayerID:  playerID,
			Kind:      OpAppend,
			Cards:     cards,
			CreatedAt: g.now(),
		})
		g.mu.Unlock()
		return nil
	}
	g.lastWrite[playerID] = g.now()
	g.mu.Unlock()

	err := g.store.AppendToCollection(ctx, playerID, cards)
	if err == nil {
		return nil
	}
	if !store.IsQuota(err) {
		return err
	}

	g.mu.Lock()
	g.enqueueLocked(Entry{
		PlayerID:  playerID,
		Kind:      OpAppend,
		Cards:     cards,
		CreatedAt: g.now(),
	})
	g.mu.Unlock()
	return nil
}

// BufferReveal records the full revealed-slot set for a player and resets
// the shared debounce timer. Only the timer's final firing writes; bursts of
// flips collapse into one write.
func (g *Gateway) BufferReveal(playerID string, revealed []int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	indices := make([]int, len(revealed))
	copy(indices, revealed)
	g.pendingReveal[playerID] = indices

	if g.revealTimer != nil {
		g.revealTimer.Stop()
	}
	g.revealTimer = time.AfterFunc(g.opts.RevealDebounce, func() {
		if err := g.FlushReveals(context.Background()); err != nil {
			slog.Error("Reveal flush failed",
				slog.String("type", "error"),
				slog.Any("error", err),
			)
		}
	})
}

// FlushReveals writes every buffered reveal set immediately, cancelling the
// debounce timer. Called by the timer and forced at session close.
func (g *Gateway) FlushReveals(ctx context.Context) error {
	g.mu.Lock()
	if g.revealTimer != nil {
		g.revealTimer.Stop()
		g.revealTimer = nil
	}
	pending := g.pendingReveal
	g.pendingReveal = make(map[string][]int)
	g.mu.Unlock()

	var firstErr error
	for playerID, indices := range pending {
		idx := indices
		err := g.Write(ctx, playerID, store.Patch{RevealedCards: &idx})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// QueueLen reports the number of pending queued writes.
func (g *Gateway) QueueLen() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}

// Close flushes buffered reveals and makes one synchronous pass over the
// queue, then stops all timers.
func (g *Gateway) Close(ctx context.Context) error {
	err := g.FlushReveals(ctx)
	g.flushQueue(ctx)

	g.mu.Lock()
	if g.flushTimer != nil {
		g.flushTimer.Stop()
		g.flushTimer = nil
	}
	if g.revealTimer != nil {
		g.revealTimer.Stop()
		g.revealTimer = nil
	}
	g.mu.Unlock()
	return err
}

func (g *Gateway) rateLimitedLocked(playerID string) bool {
	last, ok := g.lastWrite[playerID]
	return ok && g.now().Sub(last) < g.opts.MinWriteInterval
}

func (g *Gateway) enqueueLocked(e Entry) {
	g.queue = enqueue(g.queue, e)
	g.persistQueueLocked()
	g.scheduleFlushLocked(g.opts.MinWriteInterval)
}

func (g *Gateway) persistQueueLocked() {
	if err := g.qs.Save(context.Background(), g.queue); err != nil {
		slog.Error("Failed to persist write queue",
			slog.String("type", "error"),
			slog.Any("error", err),
		)
	}
}

// scheduleFlushLocked arms the background flusher. Scheduling while a timer
// is already pending is a no-op.
func (g *Gateway) scheduleFlushLocked(d time.Duration) {
	if g.flushTimer != nil {
		return
	}
	g.flushTimer = time.AfterFunc(d, func() {
		g.mu.Lock()
		g.flushTimer = nil
		g.mu.Unlock()
		g.flushQueue(context.Background())
	})
}

// flushQueue drains the queue in order. A quota failure stops the pass and
// reschedules with exponential backoff; any other failure retries the entry
// a bounded number of times before dropping it.
func (g *Gateway) flushQueue(ctx context.Context) {
	g.mu.Lock()
	if g.flushing {
		g.mu.Unlock()
		return
	}
	g.flushing = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.flushing = false
		g.mu.Unlock()
	}()

	for {
		g.mu.Lock()
		if len(g.queue) == 0 {
			g.mu.Unlock()
			return
		}
		entry := g.queue[0]
		g.mu.Unlock()

		err := g.transmit(ctx, entry)

		g.mu.Lock()
		switch {
		case err == nil || errors.Is(err, store.ErrNotFound):
			// Done, or the player is gone and the write is moot. Cards
			// merged into the entry mid-transmit stay queued.
			if rest := appendedSince(entry, g.queue[0]); len(rest) > 0 {
				g.queue[0].Cards = rest
				g.queue[0].Attempts = 0
			} else {
				g.queue = g.queue[1:]
			}
			g.flushAttempts = 0
			g.persistQueueLocked()
			g.mu.Unlock()

		case store.IsQuota(err):
			g.flushAttempts++
			backoff := quotaBackoff(g.opts, g.flushAttempts)
			g.persistQueueLocked()
			g.scheduleFlushLocked(backoff)
			g.mu.Unlock()
			slog.Warn("Write queue paused on quota",
				slog.String("type", "db"),
				slog.Duration("backoff", backoff),
				slog.Int("pending", len(g.queue)),
			)
			return

		default:
			g.queue[0].Attempts++
			if g.queue[0].Attempts > g.opts.MaxAttempts {
				slog.Error("Dropping write after repeated failures",
					slog.String("type", "error"),
					slog.String("player_id", entry.PlayerID),
					slog.String("kind", string(entry.Kind)),
					slog.Any("error", err),
				)
				g.queue = g.queue[1:]
				g.persistQueueLocked()
				g.mu.Unlock()
				continue
			}
			g.persistQueueLocked()
			g.scheduleFlushLocked(g.opts.BackoffBase)
			g.mu.Unlock()
			return
		}
	}
}

func (g *Gateway) transmit(ctx context.Context, e Entry) error {
	switch e.Kind {
	case OpAppend:
		return g.store.AppendToCollection(ctx, e.PlayerID, e.Cards)
	default:
		return g.store.SavePlayer(ctx, e.PlayerID, e.Patch)
	}
}

// appendedSince returns cards present in current but not in the transmitted
// snapshot. Non-append entries always return nil.
func appendedSince(sent, current Entry) []catalog.Instance {
	if sent.Kind != OpAppend || len(current.Cards) <= len(sent.Cards) {
		return nil
	}
	seen := make(map[string]struct{}, len(sent.Cards))
	for _, c := range sent.Cards {
		seen[c.InstanceID] = struct{}{}
	}
	var rest []catalog.Instance
	for _, c := range current.Cards {
		if _, ok := seen[c.InstanceID]; !ok {
			rest = append(rest, c)
		}
	}
	return rest
}

func quotaBackoff(opts Options, attempts int) time.Duration {
	exp := attempts
	if exp > config.QueueBackoffMaxExp {
		exp = config.QueueBackoffMaxExp
	}
	d := opts.BackoffBase * (1 << exp)
	if d > opts.BackoffCap {
		d = opts.BackoffCap
	}
	return d
}
