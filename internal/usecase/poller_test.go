package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"SigBoard/internal/domain/models"
	"SigBoard/pkg/cache"
	"SigBoard/pkg/logger"
	"SigBoard/pkg/metrics"
)

var testMetrics = metrics.New()

// fakeSource is an in-memory MarketSource with togglable failure.
type fakeSource struct {
	fetchCalls  int64
	addCalls    int64
	removeCalls int64
	uploadCalls int64
	fail        atomic.Bool
	snap        models.Snapshot
}

func (f *fakeSource) FetchData(context.Context) (models.Snapshot, error) {
	atomic.AddInt64(&f.fetchCalls, 1)
	if f.fail.Load() {
		return models.Snapshot{}, errors.New("backend down")
	}
	return f.snap, nil
}

func (f *fakeSource) AddPair(_ context.Context, _ string) error {
	atomic.AddInt64(&f.addCalls, 1)
	return nil
}

func (f *fakeSource) RemovePairs(_ context.Context, _ []string) error {
	atomic.AddInt64(&f.removeCalls, 1)
	return nil
}

func (f *fakeSource) UploadPairs(_ context.Context, _ string, _ []byte) error {
	atomic.AddInt64(&f.uploadCalls, 1)
	return nil
}

func (f *fakeSource) ExportPairs(context.Context) ([]byte, error) {
	return []byte("symbol\nBTCUSDT\n"), nil
}

func snapWith(symbols ...string) models.Snapshot {
	entries := make(map[string]models.MarketEntry, len(symbols))
	for _, s := range symbols {
		entries[s] = models.MarketEntry{Signal: models.SignalNeutral}
	}
	return models.Snapshot{Entries: entries, FetchedAt: time.Now()}
}

func TestRefreshReplacesSnapshot(t *testing.T) {
	src := &fakeSource{snap: snapWith("BTCUSDT")}
	p := NewSnapshotPoller(src, time.Minute, logger.Nop(), testMetrics)

	p.Refresh(context.Background())

	snap, connected := p.Snapshot()
	if !connected {
		t.Fatalf("expected connected after successful poll")
	}
	if _, ok := snap.Entries["BTCUSDT"]; !ok {
		t.Fatalf("snapshot missing fetched entry: %v", snap.Entries)
	}

	// Wholesale replacement, no merging.
	src.snap = snapWith("ETHUSDT")
	p.Refresh(context.Background())
	snap, _ = p.Snapshot()
	if _, ok := snap.Entries["BTCUSDT"]; ok {
		t.Fatalf("old entry survived replacement")
	}
	if _, ok := snap.Entries["ETHUSDT"]; !ok {
		t.Fatalf("new entry missing")
	}
}

func TestRefreshRetainsSnapshotOnFailure(t *testing.T) {
	src := &fakeSource{snap: snapWith("BTCUSDT")}
	p := NewSnapshotPoller(src, time.Minute, logger.Nop(), testMetrics)

	p.Refresh(context.Background())
	src.fail.Store(true)
	p.Refresh(context.Background())

	snap, connected := p.Snapshot()
	if connected {
		t.Fatalf("expected disconnected after failed poll")
	}
	if _, ok := snap.Entries["BTCUSDT"]; !ok {
		t.Fatalf("prior snapshot lost on failed poll")
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	src := &fakeSource{snap: snapWith("BTCUSDT")}
	p := NewSnapshotPoller(src, 10*time.Millisecond, logger.Nop(), testMetrics)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Start returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("poller did not stop after cancel")
	}

	// No further polls after cancellation.
	n := atomic.LoadInt64(&src.fetchCalls)
	time.Sleep(50 * time.Millisecond)
	if m := atomic.LoadInt64(&src.fetchCalls); m != n {
		t.Fatalf("poller still fetching after cancel: %d -> %d", n, m)
	}
}

func TestPollerWritesThroughCache(t *testing.T) {
	src := &fakeSource{snap: snapWith("BTCUSDT")}
	mem := cache.NewMemoryCache()
	p := NewSnapshotPoller(src, time.Minute, logger.Nop(), testMetrics, WithCache(mem, time.Minute))

	p.Refresh(context.Background())

	var cached models.Snapshot
	if err := mem.Get(context.Background(), snapshotCacheKey, &cached); err != nil {
		t.Fatalf("cache get: %v", err)
	}
	if _, ok := cached.Entries["BTCUSDT"]; !ok {
		t.Fatalf("cached snapshot missing entry")
	}
}

func TestStartRestoresCachedSnapshotWhenBackendDown(t *testing.T) {
	mem := cache.NewMemoryCache()
	if err := mem.Set(context.Background(), snapshotCacheKey, snapWith("BTCUSDT"), time.Minute); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	src := &fakeSource{}
	src.fail.Store(true)
	p := NewSnapshotPoller(src, time.Minute, logger.Nop(), testMetrics, WithCache(mem, time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Start(ctx) }()

	deadline := time.After(time.Second)
	for {
		snap, connected := p.Snapshot()
		if _, ok := snap.Entries["BTCUSDT"]; ok {
			if connected {
				t.Fatalf("restored snapshot must not count as connected")
			}
			break
		}
		select {
		case <-deadline:
			t.Fatalf("cached snapshot never restored")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestRestoredSnapshotYieldsToLivePoll(t *testing.T) {
	mem := cache.NewMemoryCache()
	if err := mem.Set(context.Background(), snapshotCacheKey, snapWith("STALEUSDT"), time.Minute); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	src := &fakeSource{snap: snapWith("BTCUSDT")}
	p := NewSnapshotPoller(src, time.Minute, logger.Nop(), testMetrics, WithCache(mem, time.Minute))

	p.hydrate(context.Background())
	p.Refresh(context.Background())

	snap, connected := p.Snapshot()
	if !connected {
		t.Fatalf("expected connected after live poll")
	}
	if _, ok := snap.Entries["STALEUSDT"]; ok {
		t.Fatalf("stale cached entry survived live poll")
	}
	if _, ok := snap.Entries["BTCUSDT"]; !ok {
		t.Fatalf("live entry missing after poll")
	}
}

func TestAddSymbolRejectsEmptyBeforeNetwork(t *testing.T) {
	src := &fakeSource{snap: snapWith()}
	p := NewSnapshotPoller(src, time.Minute, logger.Nop(), testMetrics)

	for _, in := range []string{"", "   "} {
		if err := p.AddSymbol(context.Background(), in); err == nil {
			t.Fatalf("AddSymbol(%q) accepted empty input", in)
		}
	}
	if n := atomic.LoadInt64(&src.addCalls); n != 0 {
		t.Fatalf("backend called %d times for invalid input", n)
	}
}

func TestAddSymbolNormalizesAndRefetches(t *testing.T) {
	src := &fakeSource{snap: snapWith("SOLUSDT")}
	p := NewSnapshotPoller(src, time.Minute, logger.Nop(), testMetrics)

	if err := p.AddSymbol(context.Background(), " solusdt "); err != nil {
		t.Fatalf("AddSymbol: %v", err)
	}
	if n := atomic.LoadInt64(&src.addCalls); n != 1 {
		t.Fatalf("add calls = %d, want 1", n)
	}
	if n := atomic.LoadInt64(&src.fetchCalls); n != 1 {
		t.Fatalf("fetch calls = %d, want refetch after mutation", n)
	}
}

func TestRemoveSymbolsRejectsEmptySelection(t *testing.T) {
	src := &fakeSource{}
	p := NewSnapshotPoller(src, time.Minute, logger.Nop(), testMetrics)

	if err := p.RemoveSymbols(context.Background(), nil); err == nil {
		t.Fatalf("accepted empty selection")
	}
	if err := p.RemoveSymbols(context.Background(), []string{" ", ""}); err == nil {
		t.Fatalf("accepted blank selection")
	}
	if n := atomic.LoadInt64(&src.removeCalls); n != 0 {
		t.Fatalf("backend called %d times for empty selection", n)
	}
}

func TestUploadPairsRejectsEmptyFile(t *testing.T) {
	src := &fakeSource{}
	p := NewSnapshotPoller(src, time.Minute, logger.Nop(), testMetrics)

	if err := p.UploadPairs(context.Background(), "pairs.csv", nil); err == nil {
		t.Fatalf("accepted empty upload")
	}
	if n := atomic.LoadInt64(&src.uploadCalls); n != 0 {
		t.Fatalf("backend called %d times for empty upload", n)
	}
}
