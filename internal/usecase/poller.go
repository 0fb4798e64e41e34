package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"SigBoard/internal/domain/models"
	"SigBoard/pkg/cache"
	xhttp "SigBoard/pkg/http"
	"SigBoard/pkg/logger"
	"SigBoard/pkg/metrics"
	"SigBoard/pkg/util"
)

const snapshotCacheKey = "snapshot:latest"

// MarketSource is the backend API surface the poller depends on.
type MarketSource interface {
	FetchData(ctx context.Context) (models.Snapshot, error)
	AddPair(ctx context.Context, symbol string) error
	RemovePairs(ctx context.Context, symbols []string) error
	UploadPairs(ctx context.Context, filename string, content []byte) error
	ExportPairs(ctx context.Context) ([]byte, error)
}

// Broadcaster receives each fresh snapshot.
type Broadcaster interface {
	Broadcast(models.Snapshot)
}

// SnapshotPoller fetches the market snapshot on a fixed interval and holds
// the latest one. The snapshot is replaced wholesale on success; on failure
// the previous snapshot is retained so a backend blip never blanks the
// dashboard.
type SnapshotPoller struct {
	source   MarketSource
	interval time.Duration
	cache    cache.Service
	cacheTTL time.Duration
	hub      Broadcaster
	notifier *SignalChangeNotifier
	logger   *logger.Logger
	metrics  *metrics.Recorder

	mu        sync.RWMutex
	snap      models.Snapshot
	connected bool
}

// PollerOption configures SnapshotPoller.
type PollerOption func(*SnapshotPoller)

// NewSnapshotPoller creates a poller. Interval defaults to 15s.
func NewSnapshotPoller(source MarketSource, interval time.Duration, l *logger.Logger, m *metrics.Recorder, opts ...PollerOption) *SnapshotPoller {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	p := &SnapshotPoller{
		source:   source,
		interval: interval,
		cacheTTL: time.Minute,
		logger:   l,
		metrics:  m,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithCache enables snapshot write-through to a cache.
func WithCache(c cache.Service, ttl time.Duration) PollerOption {
	return func(p *SnapshotPoller) {
		p.cache = c
		if ttl > 0 {
			p.cacheTTL = ttl
		}
	}
}

// WithBroadcaster wires snapshot updates into a broadcaster.
func WithBroadcaster(b Broadcaster) PollerOption {
	return func(p *SnapshotPoller) {
		p.hub = b
	}
}

// WithNotifier wires signal-change event publishing.
func WithNotifier(n *SignalChangeNotifier) PollerOption {
	return func(p *SnapshotPoller) {
		p.notifier = n
	}
}

// Start polls until ctx is cancelled. The ticker is always stopped on exit.
// A cached snapshot from a previous run is loaded first so the dashboard has
// data to serve even when the backend is down at startup.
func (p *SnapshotPoller) Start(ctx context.Context) error {
	p.hydrate(ctx)
	p.Refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}

// hydrate restores the last cached snapshot. It never overwrites a snapshot
// already fetched from the backend, and a cache miss is not an error. The
// connected flag stays false until a live poll succeeds.
func (p *SnapshotPoller) hydrate(ctx context.Context) {
	if p.cache == nil {
		return
	}

	var snap models.Snapshot
	if err := p.cache.Get(ctx, snapshotCacheKey, &snap); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			p.logger.Warn("snapshot cache read failed", logger.Error(err))
		}
		return
	}
	if len(snap.Entries) == 0 {
		return
	}

	p.mu.Lock()
	if p.snap.Entries == nil {
		p.snap = snap
	}
	p.mu.Unlock()

	p.logger.Info("snapshot restored from cache",
		logger.Int("symbols", len(snap.Entries)),
	)
}

// Refresh fetches the snapshot once. Safe to call concurrently with Start.
func (p *SnapshotPoller) Refresh(ctx context.Context) {
	snap, err := p.source.FetchData(ctx)
	if err != nil {
		p.metrics.RecordPoll("error")
		p.logger.Warn("snapshot poll failed", logger.Error(err))
		p.mu.Lock()
		p.connected = false
		p.mu.Unlock()
		return
	}

	p.mu.Lock()
	prev := p.snap
	p.snap = snap
	p.connected = true
	p.mu.Unlock()

	p.metrics.RecordPoll("ok")
	p.metrics.RecordSnapshotSize(len(snap.Entries))

	if p.cache != nil {
		if err := p.cache.Set(ctx, snapshotCacheKey, snap, p.cacheTTL); err != nil {
			p.logger.Warn("snapshot cache write failed", logger.Error(err))
		}
	}
	if p.hub != nil {
		p.hub.Broadcast(snap)
	}
	if p.notifier != nil {
		p.notifier.Notify(ctx, DiffSignals(prev, snap))
	}
}

// Snapshot returns the latest snapshot and whether the last poll succeeded.
func (p *SnapshotPoller) Snapshot() (models.Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap, p.connected
}

// AddSymbol registers a pair with the backend and refetches immediately.
// Empty input is rejected before any network call.
func (p *SnapshotPoller) AddSymbol(ctx context.Context, symbol string) error {
	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" {
		return xhttp.BadRequestError("symbol cannot be empty")
	}
	if err := p.source.AddPair(ctx, symbol); err != nil {
		return xhttp.InternalError("failed to add symbol").WithError(err)
	}
	p.Refresh(ctx)
	return nil
}

// RemoveSymbols removes pairs from the backend and refetches immediately.
func (p *SnapshotPoller) RemoveSymbols(ctx context.Context, symbols []string) error {
	normalized := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = util.NormalizeSymbol(s); s != "" {
			normalized = append(normalized, s)
		}
	}
	if len(normalized) == 0 {
		return xhttp.BadRequestError("no symbols selected")
	}
	if err := p.source.RemovePairs(ctx, normalized); err != nil {
		return xhttp.InternalError("failed to remove symbols").WithError(err)
	}
	p.Refresh(ctx)
	return nil
}

// UploadPairs forwards a symbol list file and refetches immediately.
func (p *SnapshotPoller) UploadPairs(ctx context.Context, filename string, content []byte) error {
	if len(content) == 0 {
		return xhttp.BadRequestError("no file selected")
	}
	if err := p.source.UploadPairs(ctx, filename, content); err != nil {
		return xhttp.InternalError("failed to upload symbols").WithError(err)
	}
	p.Refresh(ctx)
	return nil
}

// ExportPairs downloads the pair list as CSV.
func (p *SnapshotPoller) ExportPairs(ctx context.Context) ([]byte, error) {
	out, err := p.source.ExportPairs(ctx)
	if err != nil {
		return nil, xhttp.InternalError("failed to export symbols").WithError(err)
	}
	return out, nil
}
