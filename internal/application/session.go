package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

// Mode selects what GetView shows
type Mode int

const (
	// ModeBrowse lists source rows next to their paired target rows
	ModeBrowse Mode = iota
	// ModeManualCompare lists target rows and marks those already paired
	ModeManualCompare
)

// RowState describes how a view row should be rendered
type RowState int

const (
	RowNeutral RowState = iota
	RowSynced
	RowDeleted // paired item no longer resolves in its catalog
)

// ViewRow is one displayed row
type ViewRow struct {
	ID              int
	Row             domain.Row
	KnowledgeTypeID int
	Ratio           string // synced/total children, source rows of Subject..Theme only
	State           RowState
}

// View is what a filter currently shows. In browse mode Source and Target are
// aligned row by row; in manual compare mode only Target is filled.
type View struct {
	Layer  domain.Layer
	Mode   Mode
	Source []ViewRow
	Target []ViewRow
	// Names are the navigable values of the listed rows
	Names []string
}

// Session composes the caches, pair store and matcher of one synchronization
// session between an ordered pair of catalogs.
type Session struct {
	source      ports.ItemRepository
	target      ports.ItemRepository
	sourceItems *ItemCache
	targetItems *ItemCache
	pairs       *PairStore
	matcher     *Matcher
	counts      *ChildCounts
	pending     *Proposal
	log         *slog.Logger
}

// NewSession wires a session. source and target are the catalogs keyed by
// pairs.Source() and pairs.Target().
func NewSession(source, target ports.ItemRepository, pairs *PairStore, matcher *Matcher, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		source:      source,
		target:      target,
		sourceItems: NewItemCache(source),
		targetItems: NewItemCache(target),
		pairs:       pairs,
		matcher:     matcher,
		counts:      NewChildCounts(),
		log:         logger,
	}
}

// Pairs exposes the session's pair store
func (s *Session) Pairs() *PairStore { return s.pairs }

// Pending returns the unconfirmed proposal, if any
func (s *Session) Pending() *Proposal { return s.pending }

// GetView loads what filter currently shows. On failure the filter is
// restored to its state before the call.
func (s *Session) GetView(ctx context.Context, filter *Filter, mode Mode) (*View, error) {
	snapshot := filter.Clone()

	var (
		view *View
		err  error
	)
	if mode == ModeManualCompare {
		view, err = s.compareView(ctx, filter)
	} else {
		view, err = s.browseView(ctx, filter)
	}
	if err != nil {
		filter.Restore(snapshot)
		return nil, connectivity("load view", err)
	}
	return view, nil
}

// Navigate applies move to filter and loads the resulting view, rolling the
// filter back if either step fails
func (s *Session) Navigate(ctx context.Context, filter *Filter, mode Mode, move func(*Filter) error) (*View, error) {
	snapshot := filter.Clone()
	if err := move(filter); err != nil {
		filter.Restore(snapshot)
		return nil, err
	}
	view, err := s.GetView(ctx, filter, mode)
	if err != nil {
		filter.Restore(snapshot)
		return nil, err
	}
	return view, nil
}

func (s *Session) browseView(ctx context.Context, filter *Filter) (*View, error) {
	layer := filter.Layer()
	parentID := filter.ParentID()

	records, err := s.source.LoadItems(ctx, layer, parentID)
	if err != nil {
		return nil, fmt.Errorf("load source items: %w", err)
	}

	view := &View{Layer: layer, Mode: ModeBrowse}
	ids := make([]int, 0, len(records))
	for _, rec := range records {
		ratio, err := s.ratio(ctx, layer, rec.ID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, rec.ID)
		view.Names = append(view.Names, rec.Row.Name())
		view.Source = append(view.Source, ViewRow{
			ID:              rec.ID,
			Row:             rec.Row,
			KnowledgeTypeID: rec.KnowledgeTypeID,
			Ratio:           ratio,
		})
	}
	filter.SetIDs(layer, ids)

	peers, err := s.pairs.SynchronizedIDs(ctx, layer, filter.IDs(), false)
	if err != nil {
		return nil, err
	}

	synced := 0
	for _, peer := range peers {
		if peer == domain.NoID {
			view.Target = append(view.Target, ViewRow{ID: domain.NoID, Row: domain.NewRow(layer)})
			continue
		}
		synced++
		row, err := s.targetItems.GetItem(ctx, layer, peer)
		if err != nil {
			return nil, fmt.Errorf("load target item: %w", err)
		}
		if row.IsEmpty() {
			view.Target = append(view.Target, ViewRow{ID: peer, Row: domain.DeletedRow(layer, peer), State: RowDeleted})
			continue
		}
		view.Target = append(view.Target, ViewRow{ID: peer, Row: row, State: RowSynced})
	}

	if layer != domain.LayerSubject && !layer.IsLeaf() {
		s.counts.Set(layer.Parent(), parentID, synced, unknownCount)
	}
	return view, nil
}

// ratio returns the children ratio of a source row, counting the total on
// first sight
func (s *Session) ratio(ctx context.Context, layer domain.Layer, id int) (string, error) {
	if !layer.HasChildRatio() {
		return "", nil
	}
	if !s.counts.HasTotal(layer, id) {
		total, err := s.source.CountChildren(ctx, layer, id)
		if err != nil {
			return "", fmt.Errorf("count children: %w", err)
		}
		s.counts.Set(layer, id, unknownCount, total)
	}
	return s.counts.Ratio(layer, id), nil
}

func (s *Session) compareView(ctx context.Context, filter *Filter) (*View, error) {
	layer := filter.Layer()

	records, err := s.target.LoadItems(ctx, layer, filter.ParentID())
	if err != nil {
		return nil, fmt.Errorf("load target items: %w", err)
	}

	view := &View{Layer: layer, Mode: ModeManualCompare}
	ids := make([]int, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
		view.Names = append(view.Names, rec.Row.Name())
		view.Target = append(view.Target, ViewRow{ID: rec.ID, Row: rec.Row, KnowledgeTypeID: rec.KnowledgeTypeID})
	}
	filter.SetIDs(layer, ids)

	peers, err := s.pairs.SynchronizedIDs(ctx, layer, filter.IDs(), true)
	if err != nil {
		return nil, err
	}
	for i, peer := range peers {
		if i < len(view.Target) && peer != domain.NoID {
			view.Target[i].State = RowSynced
		}
	}
	return view, nil
}

// Synchronize proposes matches for the unpaired rows the filter shows. The
// proposal stays pending until confirmed or discarded.
func (s *Session) Synchronize(ctx context.Context, filter *Filter) (*Proposal, error) {
	view, err := s.GetView(ctx, filter, ModeBrowse)
	if err != nil {
		return nil, err
	}

	req := MatchRequest{
		Layer:     view.Layer,
		SubjectID: filter.SubjectID(),
		PackageID: filter.Selected(domain.LayerPackage),
		ThemeID:   filter.Selected(domain.LayerTheme),
	}
	for i, src := range view.Source {
		target := domain.NoID
		if i < len(view.Target) {
			target = view.Target[i].ID
		}
		req.Rows = append(req.Rows, SourceRow{
			ID:              src.ID,
			Row:             src.Row,
			KnowledgeTypeID: src.KnowledgeTypeID,
			TargetID:        target,
		})
	}

	proposal, err := s.matcher.Propose(ctx, req, s.targetItems)
	if err != nil {
		return nil, connectivity("synchronize", err)
	}

	s.pending = nil
	if proposal.Status == StatusProposed {
		s.pending = proposal
	}
	s.log.Info("synchronize", "layer", req.Layer, "status", proposal.Status, "new", proposal.NewMatches)
	return proposal, nil
}

// Toggle flips a tentative match of the pending bulk proposal between accept
// and decline and returns the new state
func (s *Session) Toggle(row int) (bool, error) {
	if s.pending == nil {
		return false, ErrNoPendingProposal
	}
	if row < 0 || row >= len(s.pending.Matches) {
		return false, &ValidationError{Field: "row", Message: fmt.Sprintf("no proposal row %d", row)}
	}
	m := &s.pending.Matches[row]
	if m.Kind != MatchTentative {
		return false, fmt.Errorf("%w: row %d is not a tentative match", ErrInvalidOperation, row)
	}
	m.Accepted = !m.Accepted
	return m.Accepted, nil
}

// Discard drops the pending proposal
func (s *Session) Discard() { s.pending = nil }

// ConfirmAuto persists the accepted rows of the pending bulk proposal in one
// batch. parentID is the selected parent of the proposal's layer.
func (s *Session) ConfirmAuto(ctx context.Context, parentID int) (int, error) {
	p := s.pending
	if p == nil {
		return 0, ErrNoPendingProposal
	}
	if p.Layer.IsLeaf() {
		return 0, fmt.Errorf("%w: leaf proposals are confirmed with a choice", ErrInvalidOperation)
	}

	var accepted []AcceptedPair
	for _, m := range p.Matches {
		if m.Kind == MatchTentative && m.Accepted {
			accepted = append(accepted, AcceptedPair{SourceID: m.SourceID, TargetID: m.TargetID})
		}
	}

	n, err := s.pairs.SaveAll(ctx, p.Layer, accepted)
	if err != nil {
		return 0, connectivity("confirm", err)
	}
	s.counts.AddSynced(p.Layer.Parent(), parentID, len(accepted))
	s.pending = nil
	return n, nil
}

// ConfirmManual persists the chosen candidate of a pending leaf proposal
func (s *Session) ConfirmManual(ctx context.Context, choice int) error {
	p := s.pending
	if p == nil {
		return ErrNoPendingProposal
	}
	if !p.Layer.IsLeaf() {
		return fmt.Errorf("%w: bulk proposals are confirmed with ConfirmAuto", ErrInvalidOperation)
	}
	if choice < 0 || choice >= len(p.Choices) {
		return &ValidationError{Field: "choice", Message: fmt.Sprintf("no choice %d", choice)}
	}
	c := p.Choices[choice]
	if err := s.SavePair(ctx, p.Layer, domain.NoID, c.SourceID, c.TargetID); err != nil {
		return err
	}
	s.pending = nil
	return nil
}

// SavePair pairs a source item with a target item. parentID is the selected
// parent of layer, used to keep its children ratio current (NoID to skip).
// Saving an existing pair again is a no-op; pairing either item with a
// different peer is refused.
func (s *Session) SavePair(ctx context.Context, layer domain.Layer, parentID, sourceID, targetID int) error {
	peer, err := s.pairs.GetSynchronizedID(ctx, layer, sourceID, false)
	if err != nil {
		return connectivity("save pair", err)
	}
	owner, err := s.pairs.GetSynchronizedID(ctx, layer, targetID, true)
	if err != nil {
		return connectivity("save pair", err)
	}
	switch {
	case peer == targetID && owner == sourceID:
		return nil
	case peer != domain.NoID:
		return fmt.Errorf("%w: %s %d is already paired with %d", ErrInvalidOperation, layer, sourceID, peer)
	case owner != domain.NoID:
		return fmt.Errorf("%w: target %s %d is already paired with %d", ErrInvalidOperation, layer, targetID, owner)
	}

	if err := s.pairs.SetSynchronizedID(ctx, layer, sourceID, targetID, true); err != nil {
		return connectivity("save pair", err)
	}
	if !layer.IsLeaf() {
		s.counts.AddSynced(layer.Parent(), parentID, 1)
	}
	return nil
}

// DeletePair removes the pair of a source item
func (s *Session) DeletePair(ctx context.Context, layer domain.Layer, parentID, sourceID int) error {
	peer, err := s.pairs.GetSynchronizedID(ctx, layer, sourceID, false)
	if err != nil {
		return connectivity("delete pair", err)
	}
	if peer == domain.NoID {
		return nil
	}
	if err := s.pairs.DeletePair(ctx, layer, sourceID); err != nil {
		return connectivity("delete pair", err)
	}
	if !layer.IsLeaf() {
		s.counts.AddSynced(layer.Parent(), parentID, -1)
	}
	return nil
}

// SwitchRoles makes the target catalog the primary one. Children ratios are
// relative to the source side and start over.
func (s *Session) SwitchRoles() {
	s.pairs.SwitchRoles()
	s.source, s.target = s.target, s.source
	s.sourceItems, s.targetItems = s.targetItems, s.sourceItems
	s.counts = NewChildCounts()
	s.pending = nil
	s.log.Info("roles switched", "source", s.pairs.Source(), "target", s.pairs.Target())
}
