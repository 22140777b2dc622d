package annotate

import (
	"context"
	"crypto/sha256"
	"log"
	"os"
	"sync"
	"time"
)

// Watcher keeps an HTML file consistent with the marking rules while the
// file changes on disk. It re-runs the marking pass after every observed
// content change, for the lifetime of the watcher.
type Watcher struct {
	path     string
	rules    Rules
	interval time.Duration
	wakeCh   chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu       sync.Mutex
	lastHash [sha256.Size]byte
	seeded   bool
}

// NewWatcher starts watching the file, running an initial pass immediately.
// The interval bounds how long an external change can go unnoticed; Notify
// wakes the watcher early.
func NewWatcher(path string, rules Rules, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:     path,
		rules:    rules,
		interval: interval,
		wakeCh:   make(chan struct{}, 1),
		cancel:   cancel,
	}
	w.wg.Add(1)
	go w.run(ctx)
	return w
}

// Notify wakes the watcher for an immediate pass. Safe to call from any
// goroutine; rapid calls coalesce into one wake-up.
func (w *Watcher) Notify() {
	if w == nil {
		return
	}
	select {
	case w.wakeCh <- struct{}{}:
	default:
	}
}

// Stop halts the watcher and waits for the in-flight pass to finish.
func (w *Watcher) Stop() {
	if w == nil {
		return
	}
	w.cancel()
	w.Notify()
	w.wg.Wait()
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	if err := w.Pass(); err != nil {
		log.Printf("annotate %s: %v", w.path, err)
	}
	for {
		if ctx.Err() != nil {
			return
		}
		if err := w.waitForChange(ctx); err != nil {
			return
		}
		if err := w.Pass(); err != nil {
			log.Printf("annotate %s: %v", w.path, err)
		}
	}
}

func (w *Watcher) waitForChange(ctx context.Context) error {
	timer := time.NewTimer(w.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.wakeCh:
		return nil
	case <-timer.C:
		return nil
	}
}

// Pass reads the file and applies one marking pass if its content changed
// since the last one. The watcher's own writes are remembered by hash, so a
// pass never re-triggers on the mutation it made itself.
func (w *Watcher) Pass() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	raw, err := os.ReadFile(w.path)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(raw)
	if w.seeded && sum == w.lastHash {
		return nil
	}

	out, result, err := Annotate(string(raw), w.rules)
	if err != nil {
		return err
	}
	if result.Marked == 0 && !result.Injected {
		w.lastHash = sum
		w.seeded = true
		return nil
	}

	temp := w.path + ".tmp"
	if err := os.WriteFile(temp, []byte(out), 0o644); err != nil {
		return err
	}
	if err := os.Rename(temp, w.path); err != nil {
		return err
	}
	w.lastHash = sha256.Sum256([]byte(out))
	w.seeded = true
	log.Printf("annotated %s: %d community links, %d newly marked", w.path, result.Scanned, result.Marked)
	return nil
}
