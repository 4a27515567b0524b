package commands

import (
	"context"

	"catalogsync/internal/application"
	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

const (
	sourceCatalog domain.CatalogID = 1
	targetCatalog domain.CatalogID = 2
)

type handleKey struct {
	catalog domain.CatalogID
	layer   domain.Layer
	item    int
}

// memTable is a minimal in-memory PairTable
type memTable struct {
	handles map[handleKey]int64
	items   map[int64]handleKey
	pairs   map[ports.HandlePair]bool
	next    int64
}

func newMemTable() *memTable {
	return &memTable{
		handles: make(map[handleKey]int64),
		items:   make(map[int64]handleKey),
		pairs:   make(map[ports.HandlePair]bool),
	}
}

func (t *memTable) CatalogID(_ context.Context, name string) (domain.CatalogID, error) {
	return domain.CatalogID(len(name)), nil
}

func (t *memTable) FindPeer(_ context.Context, layer domain.Layer, itemID int, catalog, peerCatalog domain.CatalogID) (int, bool, error) {
	h, ok := t.handles[handleKey{catalog, layer, itemID}]
	if !ok {
		return 0, false, nil
	}
	for p := range t.pairs {
		other := p.First
		if p.First == h {
			other = p.Second
		} else if p.Second != h {
			continue
		}
		if k := t.items[other]; k.catalog == peerCatalog {
			return k.item, true, nil
		}
	}
	return 0, false, nil
}

func (t *memTable) FindHandle(_ context.Context, catalog domain.CatalogID, layer domain.Layer, itemID int) (int64, bool, error) {
	h, ok := t.handles[handleKey{catalog, layer, itemID}]
	return h, ok, nil
}

func (t *memTable) CreateHandle(_ context.Context, catalog domain.CatalogID, layer domain.Layer, itemID int) (int64, error) {
	t.next++
	k := handleKey{catalog, layer, itemID}
	t.handles[k] = t.next
	t.items[t.next] = k
	return t.next, nil
}

func (t *memTable) InsertPair(_ context.Context, pair ports.HandlePair) error {
	t.pairs[pair] = true
	return nil
}

func (t *memTable) InsertPairs(_ context.Context, pairs []ports.HandlePair) (int, error) {
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
	delete(t.pairs, pair)
	delete(t.pairs, ports.HandlePair{First: pair.Second, Second: pair.First})
	return nil
}

// memCatalog is an in-memory ItemRepository
type memCatalog struct {
	rows     [domain.LayerCount]map[int]domain.Row
	children [domain.LayerCount]map[int][]domain.ItemRecord
}

func newMemCatalog() *memCatalog {
	c := &memCatalog{}
	for i := range c.rows {
		c.rows[i] = make(map[int]domain.Row)
		c.children[i] = make(map[int][]domain.ItemRecord)
	}
	return c
}

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
	if layer == domain.LayerSubject {
		parentID = domain.NoID
	}
	return c.children[layer][parentID], nil
}

func (c *memCatalog) LoadItem(_ context.Context, layer domain.Layer, id int) (domain.Row, error) {
	row, ok := c.rows[layer][id]
	if !ok {
		return domain.NewRow(layer), nil
	}
	return row, nil
}

func (c *memCatalog) CountChildren(_ context.Context, layer domain.Layer, id int) (int, error) {
	return len(c.children[layer.Child()][id]), nil
}

type stubSearcher map[string][]domain.Candidate

func (s stubSearcher) Search(_ context.Context, q domain.CandidateQuery) ([]domain.Candidate, error) {
	return s[q.Text], nil
}

// newTestSession builds two catalogs with their subjects already paired:
//
//	source: 1 "Maths" > 11 "Algebra", 12 "Geometry" > theme 21 > knowledge 31 "Derivative"
//	target: 100 "Mathematics" > 110 "Algebra I", 120 "Geometry" > knowledge 310 "Derivatives"
func newTestSession() *application.Session {
	source := newMemCatalog()
	source.add(domain.LayerSubject, domain.NoID, 1, "Maths")
	source.add(domain.LayerPackage, 1, 11, "Maths", "Algebra")
	source.add(domain.LayerPackage, 1, 12, "Maths", "Geometry")
	source.add(domain.LayerSpecificKnowledge, 31, 31, "Maths", "Algebra", "Limits", "Part 1", "Derivative", "Definition")

	target := newMemCatalog()
	target.add(domain.LayerSubject, domain.NoID, 100, "Mathematics")
	target.add(domain.LayerPackage, 100, 110, "Mathematics", "Algebra I")
	target.add(domain.LayerPackage, 100, 120, "Mathematics", "Geometry")
	target.add(domain.LayerSpecificKnowledge, 310, 310, "Mathematics", "Algebra I", "Limits", "Part 1", "Derivatives", "Definition")

	pairs := application.NewPairStore(newMemTable(), sourceCatalog, targetCatalog, nil)
	searcher := stubSearcher{
		"Algebra":    {{ID: 110, Score: 0.9}},
		"Geometry":   {{ID: 120, Score: 0.8}},
		"Derivative": {{ID: 310, Score: 0.7}},
	}
	session := application.NewSession(source, target, pairs, application.NewMatcher(pairs, searcher), nil)
	if err := session.SavePair(context.Background(), domain.LayerSubject, domain.NoID, 1, 100); err != nil {
		panic(err)
	}
	return session
}
