package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

// layerMap holds one lookup direction, indexed by the pair layer ordinal
type layerMap [domain.LayerCount]map[int]int

func newLayerMap() *layerMap {
	m := &layerMap{}
	for i := range m {
		m[i] = make(map[int]int)
	}
	return m
}

// AcceptedPair is one tentative match the user kept
type AcceptedPair struct {
	SourceID int
	TargetID int
}

// PairStore is the bidirectional id-mapping cache of one synchronization
// session, written through to the durable pair table.
//
// forward maps source ids to target ids, mirror maps target ids back.
// Every resolved entry, including the NoID sentinel, is kept in step in both
// directions. The maps are owned by a single logical flow and are not safe for
// concurrent mutation.
type PairStore struct {
	table   ports.PairTable
	source  domain.CatalogID
	target  domain.CatalogID
	forward *layerMap
	mirror  *layerMap
	log     *slog.Logger
}

// NewPairStore creates an empty cache for the ordered catalog pair (source, target)
func NewPairStore(table ports.PairTable, source, target domain.CatalogID, logger *slog.Logger) *PairStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &PairStore{
		table:   table,
		source:  source,
		target:  target,
		forward: newLayerMap(),
		mirror:  newLayerMap(),
		log:     logger,
	}
}

// Source returns the catalog whose ids key the forward direction
func (s *PairStore) Source() domain.CatalogID { return s.source }

// Target returns the catalog whose ids key the mirror direction
func (s *PairStore) Target() domain.CatalogID { return s.target }

// GetSynchronizedID returns the id paired with id, or NoID.
// With mirror set, id is a target id and the source id is returned.
// A miss is resolved from the pair table; a hit caches both directions, a
// total miss caches NoID on the queried direction only.
func (s *PairStore) GetSynchronizedID(ctx context.Context, layer domain.Layer, id int, mirror bool) (int, error) {
	layer = layer.PairLayer()

	lookup, reverse := s.forward, s.mirror
	from, to := s.source, s.target
	if mirror {
		lookup, reverse = s.mirror, s.forward
		from, to = s.target, s.source
	}

	if value, ok := lookup[layer][id]; ok {
		return value, nil
	}

	peer, found, err := s.table.FindPeer(ctx, layer, id, from, to)
	if err != nil {
		return domain.NoID, fmt.Errorf("find pair of %s %d: %w", layer, id, err)
	}
	if !found {
		s.log.Debug("pair cache miss", "layer", layer, "id", id, "mirror", mirror)
		lookup[layer][id] = domain.NoID
		return domain.NoID, nil
	}

	lookup[layer][id] = peer
	reverse[layer][peer] = id
	return peer, nil
}

// SynchronizedIDs resolves GetSynchronizedID for every id, in order
func (s *PairStore) SynchronizedIDs(ctx context.Context, layer domain.Layer, ids []int, mirror bool) ([]int, error) {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		peer, err := s.GetSynchronizedID(ctx, layer, id, mirror)
		if err != nil {
			return nil, err
		}
		out = append(out, peer)
	}
	return out, nil
}

// SetSynchronizedID maps keyID to valueID in the forward cache.
// With persist set, both sync handles are resolved or created, a pair row
// is inserted and the mirror entry valueID -> keyID is written too, so both
// directions agree. An "already exists" failure is a no-op; any other failure
// reverts the forward entry to NoID and is returned.
func (s *PairStore) SetSynchronizedID(ctx context.Context, layer domain.Layer, keyID, valueID int, persist bool) error {
	layer = layer.PairLayer()
	s.forward[layer][keyID] = valueID

	if !persist || keyID == domain.NoID || valueID == domain.NoID {
		return nil
	}

	first, second, err := s.handles(ctx, layer, keyID, valueID)
	if err != nil {
		s.forward[layer][keyID] = domain.NoID
		return err
	}

	err = s.table.InsertPair(ctx, ports.HandlePair{First: first, Second: second})
	switch {
	case errors.Is(err, ports.ErrConstraint):
		s.log.Debug("pair already stored", "layer", layer, "source", keyID, "target", valueID)
	case err != nil:
		s.forward[layer][keyID] = domain.NoID
		return fmt.Errorf("save pair %s %d-%d: %w", layer, keyID, valueID, err)
	default:
		s.log.Info("pair saved", "layer", layer, "source", keyID, "target", valueID)
	}

	s.SetSynchronizedMirroredID(layer, valueID, keyID)
	return nil
}

// handles resolves or creates the source and target sync handles of a pair
func (s *PairStore) handles(ctx context.Context, layer domain.Layer, sourceID, targetID int) (int64, int64, error) {
	first, err := s.handle(ctx, s.source, layer, sourceID)
	if err != nil {
		return 0, 0, err
	}
	second, err := s.handle(ctx, s.target, layer, targetID)
	if err != nil {
		return 0, 0, err
	}
	return first, second, nil
}

// SetSynchronizedMirroredID maps a target id back to its source id in the
// mirror cache only
func (s *PairStore) SetSynchronizedMirroredID(layer domain.Layer, keyID, valueID int) {
	s.mirror[layer.PairLayer()][keyID] = valueID
}

// DeletePair removes the pair of the source item id, if any, from the pair
// table and from both cache directions
func (s *PairStore) DeletePair(ctx context.Context, layer domain.Layer, id int) error {
	layer = layer.PairLayer()

	peer, err := s.GetSynchronizedID(ctx, layer, id, false)
	if err != nil {
		return err
	}
	if peer == domain.NoID {
		return nil
	}

	first, ok1, err := s.table.FindHandle(ctx, s.source, layer, id)
	if err != nil {
		return fmt.Errorf("find sync handle: %w", err)
	}
	second, ok2, err := s.table.FindHandle(ctx, s.target, layer, peer)
	if err != nil {
		return fmt.Errorf("find sync handle: %w", err)
	}
	if ok1 && ok2 {
		if err := s.table.DeletePair(ctx, ports.HandlePair{First: first, Second: second}); err != nil {
			return fmt.Errorf("delete pair %s %d-%d: %w", layer, id, peer, err)
		}
	}

	delete(s.mirror[layer], peer)
	delete(s.forward[layer], id)
	s.log.Info("pair deleted", "layer", layer, "source", id, "target", peer)
	return nil
}

// SaveAll persists every accepted pair with a single batch insert and
// updates both cache directions. It returns how many pair rows were inserted.
func (s *PairStore) SaveAll(ctx context.Context, layer domain.Layer, accepted []AcceptedPair) (int, error) {
	layer = layer.PairLayer()

	var (
		batch []ports.HandlePair
		saved []AcceptedPair
	)
	for _, p := range accepted {
		if p.SourceID == domain.NoID || p.TargetID == domain.NoID {
			continue
		}
		first, second, err := s.handles(ctx, layer, p.SourceID, p.TargetID)
		if err != nil {
			return 0, err
		}
		batch = append(batch, ports.HandlePair{First: first, Second: second})
		saved = append(saved, p)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	for _, p := range saved {
		s.forward[layer][p.SourceID] = p.TargetID
		s.SetSynchronizedMirroredID(layer, p.TargetID, p.SourceID)
	}

	inserted, err := s.table.InsertPairs(ctx, batch)
	if err != nil {
		for _, p := range saved {
			s.forward[layer][p.SourceID] = domain.NoID
			delete(s.mirror[layer], p.TargetID)
		}
		return 0, fmt.Errorf("save %d pairs: %w", len(batch), err)
	}

	s.log.Info("pairs saved", "layer", layer, "accepted", len(saved), "inserted", inserted)
	return inserted, nil
}

// SwitchRoles exchanges the source and target catalogs together with the
// forward and mirror maps
func (s *PairStore) SwitchRoles() {
	s.forward, s.mirror = s.mirror, s.forward
	s.source, s.target = s.target, s.source
}

// handle resolves the sync handle of an item, creating it if absent
func (s *PairStore) handle(ctx context.Context, catalog domain.CatalogID, layer domain.Layer, itemID int) (int64, error) {
	h, ok, err := s.table.FindHandle(ctx, catalog, layer, itemID)
	if err != nil {
		return 0, fmt.Errorf("find sync handle: %w", err)
	}
	if ok {
		return h, nil
	}
	h, err = s.table.CreateHandle(ctx, catalog, layer, itemID)
	if err != nil {
		return 0, fmt.Errorf("create sync handle: %w", err)
	}
	return h, nil
}
