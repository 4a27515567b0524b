// Package search provides the client of the vector search index that ranks
// pairing candidates.
//
// Each request is scoped by a hard filter on the target catalog, the paired
// subject and the item type, and asks for the items whose text vector is
// closest to the source row's name. When a scoring profile is configured the
// paired package, theme and knowledge type are sent as boosts and more
// candidates are requested.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Search: fetch the candidates of one query.
//
// # Failures
//
// The client never retries. Callers treat an error as "no candidates" for
// that row so sibling requests are unaffected.
package search
