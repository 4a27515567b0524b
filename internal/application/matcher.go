package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

const (
	// DefaultSearchConcurrency bounds in-flight candidate requests of one batch
	DefaultSearchConcurrency = 5
	// DefaultSearchTimeout bounds a single candidate request
	DefaultSearchTimeout = 10 * time.Second
)

// Status is the outcome of one auto-sync invocation
type Status int

const (
	StatusProposed         Status = iota // tentative matches or choices are pending
	StatusNoNewMatches                   // nothing new was found
	StatusNothingToDo                    // the leaf row is already paired
	StatusUnsyncedAncestor               // the subject must be paired manually first
)

func (s Status) String() string {
	switch s {
	case StatusProposed:
		return "proposed"
	case StatusNoNewMatches:
		return "no new synchronization found"
	case StatusNothingToDo:
		return "already synchronized"
	case StatusUnsyncedAncestor:
		return "subject is not synchronized"
	default:
		return "unknown"
	}
}

// MatchKind describes one proposal row
type MatchKind int

const (
	MatchUnmatched MatchKind = iota // no candidate was assigned
	MatchExisting                   // the row was already paired
	MatchTentative                  // newly proposed, awaiting accept/decline
)

// SourceRow is one unpaired-or-paired source item handed to the matcher
type SourceRow struct {
	ID              int
	Row             domain.Row
	KnowledgeTypeID int
	TargetID        int // current mapping, NoID when unpaired
}

// MatchRequest scopes one auto-sync invocation
type MatchRequest struct {
	Layer     domain.Layer
	SubjectID int // selected source subject
	PackageID int // selected source package, NoID if none
	ThemeID   int // selected source theme, NoID if none
	Rows      []SourceRow
}

// Match is one proposal row, aligned with the request rows
type Match struct {
	SourceID int
	TargetID int
	Row      domain.Row // target row, empty when unmatched
	Score    float64
	Kind     MatchKind
	Accepted bool
}

// Proposal is the result of an auto-sync invocation
type Proposal struct {
	Status Status
	Layer  domain.Layer
	// Matches holds one entry per request row on bulk layers
	Matches []Match
	// Choices holds every eligible candidate for the single leaf row
	Choices []Match
	// NewMatches counts tentative matches (bulk) or choices (leaf)
	NewMatches int
}

// Matcher proposes pairings for unpaired rows using the ranking service
type Matcher struct {
	pairs       *PairStore
	searcher    ports.CandidateSearcher
	concurrency int
	timeout     time.Duration
	log         *slog.Logger
}

// MatcherOption configures a Matcher
type MatcherOption func(*Matcher)

// WithConcurrency overrides the number of simultaneous candidate requests
func WithConcurrency(n int) MatcherOption {
	return func(m *Matcher) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithSearchTimeout overrides the per-request timeout
func WithSearchTimeout(d time.Duration) MatcherOption {
	return func(m *Matcher) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithMatcherLogger sets the logger
func WithMatcherLogger(logger *slog.Logger) MatcherOption {
	return func(m *Matcher) {
		if logger != nil {
			m.log = logger
		}
	}
}

// NewMatcher creates a matcher over the session's pair store
func NewMatcher(pairs *PairStore, searcher ports.CandidateSearcher, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		pairs:       pairs,
		searcher:    searcher,
		concurrency: DefaultSearchConcurrency,
		timeout:     DefaultSearchTimeout,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Propose runs one auto-sync invocation. Target rows of proposed ids are
// resolved through targets.
func (m *Matcher) Propose(ctx context.Context, req MatchRequest, targets *ItemCache) (*Proposal, error) {
	if req.Layer == domain.LayerSubject {
		return nil, fmt.Errorf("%w: subjects are paired manually", ErrInvalidOperation)
	}

	unsynced := &Proposal{Status: StatusUnsyncedAncestor, Layer: req.Layer}
	if req.SubjectID == domain.NoID {
		return unsynced, nil
	}
	syncSubject, err := m.pairs.GetSynchronizedID(ctx, domain.LayerSubject, req.SubjectID, false)
	if err != nil {
		return nil, err
	}
	if syncSubject == domain.NoID {
		return unsynced, nil
	}

	base, err := m.baseQuery(ctx, req, syncSubject)
	if err != nil {
		return nil, err
	}

	if req.Layer.IsLeaf() {
		return m.proposeLeaf(ctx, req, base, targets)
	}
	return m.proposeBulk(ctx, req, base, targets)
}

// baseQuery fills the parts of a candidate query shared by every row
func (m *Matcher) baseQuery(ctx context.Context, req MatchRequest, syncSubject int) (domain.CandidateQuery, error) {
	q := domain.CandidateQuery{
		Catalog:         m.pairs.Target(),
		SubjectID:       syncSubject,
		ItemType:        req.Layer.ItemTypeCode(),
		PackageID:       domain.NoID,
		ThemeID:         domain.NoID,
		KnowledgeTypeID: domain.NoID,
	}

	var err error
	switch req.Layer {
	case domain.LayerTheme:
		if req.PackageID != domain.NoID {
			q.PackageID, err = m.pairs.GetSynchronizedID(ctx, domain.LayerPackage, req.PackageID, false)
		}
	case domain.LayerKnowledge, domain.LayerSpecificKnowledge:
		if req.ThemeID != domain.NoID {
			q.ThemeID, err = m.pairs.GetSynchronizedID(ctx, domain.LayerTheme, req.ThemeID, false)
		}
	}
	return q, err
}

func rowQuery(base domain.CandidateQuery, row SourceRow) domain.CandidateQuery {
	q := base
	q.Text = row.Row.Name()
	q.KnowledgeTypeID = row.KnowledgeTypeID
	return q
}

func (m *Matcher) proposeLeaf(ctx context.Context, req MatchRequest, base domain.CandidateQuery, targets *ItemCache) (*Proposal, error) {
	p := &Proposal{Status: StatusNoNewMatches, Layer: req.Layer}
	if len(req.Rows) == 0 {
		return p, nil
	}
	row := req.Rows[0]
	if row.TargetID != domain.NoID {
		p.Status = StatusNothingToDo
		return p, nil
	}

	seen := make(map[int]bool)
	for _, c := range m.search(ctx, rowQuery(base, row)) {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		skip, err := m.unavailable(ctx, req.Layer, c.ID, targets)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		target, err := targets.GetItem(ctx, req.Layer, c.ID)
		if err != nil {
			return nil, err
		}
		p.Choices = append(p.Choices, Match{
			SourceID: row.ID,
			TargetID: c.ID,
			Row:      target,
			Score:    c.Score,
			Kind:     MatchTentative,
		})
	}

	p.NewMatches = len(p.Choices)
	if p.NewMatches > 0 {
		p.Status = StatusProposed
	}
	return p, nil
}

func (m *Matcher) proposeBulk(ctx context.Context, req MatchRequest, base domain.CandidateQuery, targets *ItemCache) (*Proposal, error) {
	lists := m.gather(ctx, req.Rows, base)

	assigned, err := Assign(lists, func(id int) (bool, error) {
		return m.unavailable(ctx, req.Layer, id, targets)
	})
	if err != nil {
		return nil, err
	}

	p := &Proposal{Status: StatusNoNewMatches, Layer: req.Layer}
	for i, row := range req.Rows {
		match := Match{SourceID: row.ID, TargetID: domain.NoID, Kind: MatchUnmatched}
		switch {
		case row.TargetID != domain.NoID:
			match.TargetID = row.TargetID
			match.Kind = MatchExisting
		case assigned[i].ID != domain.NoID:
			match.TargetID = assigned[i].ID
			match.Score = assigned[i].Score
			match.Kind = MatchTentative
			match.Accepted = true
			p.NewMatches++
		}
		if match.TargetID != domain.NoID {
			if match.Row, err = targets.GetItem(ctx, req.Layer, match.TargetID); err != nil {
				return nil, err
			}
		}
		p.Matches = append(p.Matches, match)
	}

	if p.NewMatches > 0 {
		p.Status = StatusProposed
	}
	return p, nil
}

// gather requests candidates for every unpaired row with at most
// m.concurrency requests in flight, and returns only once all have finished.
// Paired rows get an empty list without a request.
func (m *Matcher) gather(ctx context.Context, rows []SourceRow, base domain.CandidateQuery) [][]domain.Candidate {
	lists := make([][]domain.Candidate, len(rows))

	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i, row := range rows {
		if row.TargetID != domain.NoID {
			continue
		}
		q := rowQuery(base, row)
		g.Go(func() error {
			lists[i] = m.search(ctx, q)
			return nil
		})
	}
	_ = g.Wait()

	return lists
}

// search performs one candidate request. Failures and timeouts yield no
// candidates.
func (m *Matcher) search(ctx context.Context, q domain.CandidateQuery) []domain.Candidate {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	candidates, err := m.searcher.Search(ctx, q)
	if err != nil {
		m.log.Warn("candidate search failed", "text", q.Text, "item_type", q.ItemType, "error", err)
		return nil
	}
	m.log.Debug("candidates", "text", q.Text, "count", len(candidates))
	return candidates
}

func (m *Matcher) isPaired(ctx context.Context, layer domain.Layer, targetID int) (bool, error) {
	source, err := m.pairs.GetSynchronizedID(ctx, layer, targetID, true)
	if err != nil {
		return false, err
	}
	return source != domain.NoID, nil
}

// unavailable reports whether a candidate cannot be proposed: it is already
// paired, or its target row no longer resolves (deleted or hidden).
func (m *Matcher) unavailable(ctx context.Context, layer domain.Layer, targetID int, targets *ItemCache) (bool, error) {
	paired, err := m.isPaired(ctx, layer, targetID)
	if err != nil || paired {
		return paired, err
	}
	row, err := targets.GetItem(ctx, layer, targetID)
	if err != nil {
		return false, err
	}
	return row.IsEmpty(), nil
}

// Assign runs the greedy global assignment over per-row candidate lists,
// each sorted by descending score.
//
// Each round picks the single highest-scoring (row, candidate) pair whose
// candidate is neither taken in this batch nor unavailable, assigns it and
// retires the row. A row's scan stops at its first candidate that does not
// strictly exceed the best score seen so far in the round, so on equal scores
// the earlier row wins. Rows left over get a NoID candidate.
func Assign(lists [][]domain.Candidate, unavailable func(id int) (bool, error)) ([]domain.Candidate, error) {
	result := make([]domain.Candidate, len(lists))
	done := make([]bool, len(lists))
	for i := range result {
		result[i] = domain.Candidate{ID: domain.NoID}
	}

	taken := make(map[int]bool)
	unavail := make(map[int]bool)
	checkUnavailable := func(id int) (bool, error) {
		if v, ok := unavail[id]; ok {
			return v, nil
		}
		v, err := unavailable(id)
		if err != nil {
			return false, err
		}
		unavail[id] = v
		return v, nil
	}

	for {
		bestRow := -1
		best := domain.Candidate{ID: domain.NoID, Score: math.Inf(-1)}

		for r, list := range lists {
			if done[r] {
				continue
			}
			for _, c := range list {
				if c.Score <= best.Score {
					break
				}
				if taken[c.ID] {
					continue
				}
				skip, err := checkUnavailable(c.ID)
				if err != nil {
					return nil, err
				}
				if skip {
					continue
				}
				bestRow, best = r, c
				break
			}
		}

		if bestRow == -1 {
			return result, nil
		}
		result[bestRow] = best
		taken[best.ID] = true
		done[bestRow] = true
	}
}
