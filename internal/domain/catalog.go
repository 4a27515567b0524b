package domain

// CatalogID identifies one of the two catalogs in the pair store
type CatalogID int

// Candidate is an item proposed by the ranking service
type Candidate struct {
	ID    int
	Score float64
}

// CandidateQuery describes one request to the ranking service
type CandidateQuery struct {
	Catalog         CatalogID // target catalog
	SubjectID       int       // synchronized subject id (hard filter)
	ItemType        int
	Text            string
	PackageID       int // soft boost, NoID when not applicable
	ThemeID         int // soft boost, NoID when not applicable
	KnowledgeTypeID int // soft boost, NoID when not applicable
}
