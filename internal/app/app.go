// Package app opens the databases and services named by the configuration
// and composes them into a synchronization session.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"catalogsync/internal/adapters/search"
	"catalogsync/internal/adapters/sqlite"
	"catalogsync/internal/application"
	"catalogsync/internal/config"
	"catalogsync/internal/domain"
	"catalogsync/internal/logging"
	"catalogsync/internal/ports"
)

// ErrSearchDisabled is returned for every candidate request when no search
// index is configured. The matcher treats it as zero candidates.
var ErrSearchDisabled = errors.New("search index not configured")

// App holds an open session and the resources behind it
type App struct {
	Config  *config.Config
	Session *application.Session

	store    *sqlite.Store
	source   *sqlite.Catalog
	target   *sqlite.Catalog
	sourceID domain.CatalogID
	targetID domain.CatalogID
	log      *slog.Logger
}

// Open opens the pair database and both catalogs of cfg and builds a session.
// A nil logger discards records.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	a := &App{Config: cfg, log: logger}

	a.store = sqlite.NewStore()
	if err := a.store.Open(cfg.Sync.Database); err != nil {
		return nil, err
	}

	var err error
	if a.source, err = openCatalog(cfg, cfg.Sync.Source); err != nil {
		a.Close()
		return nil, err
	}
	if a.target, err = openCatalog(cfg, cfg.Sync.Target); err != nil {
		a.Close()
		return nil, err
	}

	sourceID, err := a.store.CatalogID(ctx, cfg.Sync.Source)
	if err != nil {
		a.Close()
		return nil, err
	}
	targetID, err := a.store.CatalogID(ctx, cfg.Sync.Target)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.sourceID, a.targetID = sourceID, targetID

	pairs := application.NewPairStore(a.store, sourceID, targetID, logger)
	matcher := application.NewMatcher(pairs, newSearcher(cfg),
		application.WithConcurrency(cfg.Search.Concurrency),
		application.WithSearchTimeout(time.Duration(cfg.Search.TimeoutSeconds)*time.Second),
		application.WithMatcherLogger(logger),
	)
	a.Session = application.NewSession(a.source, a.target, pairs, matcher, logger)

	logger.Info("session opened",
		"source", cfg.Sync.Source, "source_id", sourceID,
		"target", cfg.Sync.Target, "target_id", targetID,
		"pairs", a.store.Path(),
		"search", cfg.SearchEnabled(),
	)
	return a, nil
}

// Close releases the catalogs and the pair database
func (a *App) Close() error {
	var errs []error
	if a.source != nil {
		errs = append(errs, a.source.Close())
	}
	if a.target != nil {
		errs = append(errs, a.target.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}

// CatalogNames returns the configured source and target names in their
// current roles
func (a *App) CatalogNames() (source, target string) {
	source, target = a.Config.Sync.Source, a.Config.Sync.Target
	if a.Session.Pairs().Source() != a.sourceID {
		source, target = target, source
	}
	return source, target
}

// PairCount is the number of stored pairs at one pair layer
type PairCount struct {
	Layer domain.Layer `json:"-"`
	Name  string       `json:"layer"`
	Pairs int          `json:"pairs"`
}

// PairCounts counts the stored pairs between the two configured catalogs,
// per pair layer. Roles do not matter.
func (a *App) PairCounts(ctx context.Context) ([]PairCount, error) {
	var counts []PairCount
	for l := domain.LayerSubject; l <= domain.LayerKnowledge; l++ {
		n, err := a.store.CountPairs(ctx, l, a.sourceID, a.targetID)
		if err != nil {
			return nil, fmt.Errorf("count %s pairs: %w", l, err)
		}
		counts = append(counts, PairCount{Layer: l, Name: l.String(), Pairs: n})
	}
	return counts, nil
}

func openCatalog(cfg *config.Config, name string) (*sqlite.Catalog, error) {
	path, err := cfg.CatalogPath(name)
	if err != nil {
		return nil, err
	}
	c, err := sqlite.OpenCatalog(path)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", name, err)
	}
	return c, nil
}

type disabledSearcher struct{}

func (disabledSearcher) Search(context.Context, domain.CandidateQuery) ([]domain.Candidate, error) {
	return nil, ErrSearchDisabled
}

func newSearcher(cfg *config.Config) ports.CandidateSearcher {
	if !cfg.SearchEnabled() {
		return disabledSearcher{}
	}
	return search.NewClient(search.Config{
		Endpoint:       cfg.Search.Endpoint,
		Index:          cfg.Search.Index,
		APIKey:         cfg.Search.APIKey,
		APIVersion:     cfg.Search.APIVersion,
		ScoringProfile: cfg.Search.ScoringProfile,
		TimeoutSeconds: cfg.Search.TimeoutSeconds,
	})
}
