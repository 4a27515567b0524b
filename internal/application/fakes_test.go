package application

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

type handleKey struct {
	catalog domain.CatalogID
	layer   domain.Layer
	item    int
}

// memTable is an in-memory PairTable with injectable failures
type memTable struct {
	handles map[handleKey]int64
	items   map[int64]handleKey
	pairs   map[ports.HandlePair]bool
	next    int64

	findPeerCalls int
	insertCalls   int
	batchCalls    int

	findErr   error
	createErr error
	insertErr error
	batchErr  error
	deleteErr error
}

func newMemTable() *memTable {
	return &memTable{
		handles: make(map[handleKey]int64),
		items:   make(map[int64]handleKey),
		pairs:   make(map[ports.HandlePair]bool),
	}
}

// seed stores a pair directly, bypassing the cache under test
func (t *memTable) seed(layer domain.Layer, source domain.CatalogID, sourceID int, target domain.CatalogID, targetID int) {
	first, _ := t.CreateHandle(context.Background(), source, layer, sourceID)
	second, _ := t.CreateHandle(context.Background(), target, layer, targetID)
	t.pairs[ports.HandlePair{First: first, Second: second}] = true
}

func (t *memTable) CatalogID(_ context.Context, name string) (domain.CatalogID, error) {
	return domain.CatalogID(len(name)), nil
}

func (t *memTable) FindPeer(_ context.Context, layer domain.Layer, itemID int, catalog, peerCatalog domain.CatalogID) (int, bool, error) {
	t.findPeerCalls++
	if t.findErr != nil {
		return 0, false, t.findErr
	}
	h, ok := t.handles[handleKey{catalog, layer, itemID}]
	if !ok {
		return 0, false, nil
	}
	for p := range t.pairs {
		var other int64
		switch h {
		case p.First:
			other = p.Second
		case p.Second:
			other = p.First
		default:
			continue
		}
		if k := t.items[other]; k.catalog == peerCatalog && k.layer == layer {
			return k.item, true, nil
		}
	}
	return 0, false, nil
}

func (t *memTable) FindHandle(_ context.Context, catalog domain.CatalogID, layer domain.Layer, itemID int) (int64, bool, error) {
	if t.findErr != nil {
		return 0, false, t.findErr
	}
	h, ok := t.handles[handleKey{catalog, layer, itemID}]
	return h, ok, nil
}

func (t *memTable) CreateHandle(_ context.Context, catalog domain.CatalogID, layer domain.Layer, itemID int) (int64, error) {
	if t.createErr != nil {
		return 0, t.createErr
	}
	k := handleKey{catalog, layer, itemID}
	if h, ok := t.handles[k]; ok {
		return h, nil
	}
	t.next++
	t.handles[k] = t.next
	t.items[t.next] = k
	return t.next, nil
}

func (t *memTable) InsertPair(_ context.Context, pair ports.HandlePair) error {
	t.insertCalls++
	if t.insertErr != nil {
		return t.insertErr
	}
	if t.pairs[pair] {
		return fmt.Errorf("duplicate pair: %w", ports.ErrConstraint)
	}
	t.pairs[pair] = true
	return nil
}

func (t *memTable) InsertPairs(_ context.Context, pairs []ports.HandlePair) (int, error) {
	t.batchCalls++
	if t.batchErr != nil {
		return 0, t.batchErr
	}
	n := 0
	for _, p := range pairs {
		if !t.pairs[p] {
			t.pairs[p] = true
			n++
		}
	}
	return n, nil
}

func (t *memTable) DeletePair(_ context.Context, pair ports.HandlePair) error {
	if t.deleteErr != nil {
		return t.deleteErr
	}
	delete(t.pairs, pair)
	delete(t.pairs, ports.HandlePair{First: pair.Second, Second: pair.First})
	return nil
}

// memCatalog is an in-memory ItemRepository that counts single-item loads
type memCatalog struct {
	rows     [domain.LayerCount]map[int]domain.Row
	children [domain.LayerCount]map[int][]domain.ItemRecord
	loads    map[int]int
	err      error
}

func newMemCatalog() *memCatalog {
	c := &memCatalog{loads: make(map[int]int)}
	for i := range c.rows {
		c.rows[i] = make(map[int]domain.Row)
		c.children[i] = make(map[int][]domain.ItemRecord)
	}
	return c
}

// add registers an item under parentID; Subject items use NoID as parent
func (c *memCatalog) add(layer domain.Layer, parentID, id int, fields ...string) {
	row := domain.NewRow(layer, fields...)
	c.rows[layer][id] = row
	c.children[layer][parentID] = append(c.children[layer][parentID], domain.ItemRecord{
		ID:              id,
		Row:             row,
		KnowledgeTypeID: domain.NoID,
	})
}

func (c *memCatalog) LoadItems(_ context.Context, layer domain.Layer, parentID int) ([]domain.ItemRecord, error) {
	if c.err != nil {
		return nil, c.err
	}
	if layer == domain.LayerSubject {
		parentID = domain.NoID
	}
	return c.children[layer][parentID], nil
}

func (c *memCatalog) LoadItem(_ context.Context, layer domain.Layer, id int) (domain.Row, error) {
	c.loads[id]++
	if c.err != nil {
		return domain.Row{}, c.err
	}
	row, ok := c.rows[layer][id]
	if !ok {
		return domain.NewRow(layer), nil
	}
	return row, nil
}

func (c *memCatalog) CountChildren(_ context.Context, layer domain.Layer, id int) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	return len(c.children[layer.Child()][id]), nil
}

// fakeSearcher answers from a table keyed by query text and tracks concurrency
type fakeSearcher struct {
	results map[string][]domain.Candidate
	fail    map[string]bool
	delay   time.Duration

	mu       sync.Mutex
	queries  []domain.CandidateQuery
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeSearcher) Search(ctx context.Context, q domain.CandidateQuery) ([]domain.Candidate, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fail[q.Text] {
		return nil, fmt.Errorf("search %q: service unavailable", q.Text)
	}
	return f.results[q.Text], nil
}
