package ports

import (
	"context"

	"catalogsync/internal/domain"
)

// CandidateSearcher queries the external ranking service.
// Results are sorted by descending score.
type CandidateSearcher interface {
	Search(ctx context.Context, query domain.CandidateQuery) ([]domain.Candidate, error)
}
