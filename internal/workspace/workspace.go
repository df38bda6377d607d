// Package workspace holds the dataset being explored and serves memoized
// views over it. It replaces implicit per-session state: callers create one
// Workspace and pass it to the commands and the dashboard.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/blackwell-systems/koalaviz/internal/cache"
	"github.com/blackwell-systems/koalaviz/internal/dataset"
)

// ErrNoDataset is returned by views when no dataset has been opened.
var ErrNoDataset = errors.New("no dataset loaded")

// Options configures a Workspace.
type Options struct {
	// CacheSize bounds the number of memoized views.
	CacheSize int

	// Load is passed to dataset.Load on every Open.
	Load dataset.Options
}

// Workspace owns the current dataset and the view cache. It is safe for
// concurrent use.
type Workspace struct {
	opts  Options
	cache *cache.Cache
	log   *slog.Logger

	mu     sync.RWMutex
	bundle *dataset.Bundle
}

// New creates an empty workspace.
func New(opts Options) (*Workspace, error) {
	c, err := cache.New(opts.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Workspace{
		opts:  opts,
		cache: c,
		log:   slog.Default().With("component", "workspace"),
	}, nil
}

// Open loads the data source named by ref and makes it the current dataset.
// On failure the previous dataset stays current.
func (w *Workspace) Open(ctx context.Context, ref string) (*dataset.Bundle, error) {
	b, err := dataset.Load(ctx, ref, w.opts.Load)
	if err != nil {
		return nil, err
	}
	w.Set(b)
	return b, nil
}

// Reload reads the current data source again.
func (w *Workspace) Reload(ctx context.Context) (*dataset.Bundle, error) {
	b := w.Bundle()
	if b == nil {
		return nil, ErrNoDataset
	}
	return w.Open(ctx, b.Source)
}

// Set makes b the current dataset and drops every memoized view.
func (w *Workspace) Set(b *dataset.Bundle) {
	w.mu.Lock()
	prev := w.bundle
	w.bundle = b
	w.cache.Purge()
	w.mu.Unlock()

	if prev != nil {
		w.log.Debug("dataset replaced", "previous", prev.LoadID, "load_id", b.LoadID)
	}
	w.log.Info("dataset opened", "source", b.Source, "kind", b.Kind, "load_id", b.LoadID)
}

// Bundle returns the current dataset, or nil.
func (w *Workspace) Bundle() *dataset.Bundle {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.bundle
}

// CacheStats reports how many views are memoized.
func (w *Workspace) CacheStats() cache.Stats {
	return w.cache.Stats()
}

// current returns the bundle the next view is computed from.
func (w *Workspace) current() (*dataset.Bundle, error) {
	b := w.Bundle()
	if b == nil {
		return nil, ErrNoDataset
	}
	return b, nil
}

// memo computes a view of b once per parameter set.
func memo[T any](w *Workspace, b *dataset.Bundle, op string, params []string, compute func() (T, error)) (T, error) {
	key := cache.KeyOf(append([]string{b.Fingerprint, op}, params...)...)
	computed := false
	v, err := cache.Memo(w.cache, key, func() (T, error) {
		computed = true
		return compute()
	})
	if err != nil {
		return v, fmt.Errorf("computing %s: %w", op, err)
	}
	if computed {
		w.log.Debug("view computed", "view", op, "params", params, "key", key.String())
	}
	return v, nil
}
