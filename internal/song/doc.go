// Package song defines the songwriting artifacts produced by the AI
// collaborators and the in-memory history they live in.
//
// A Song is immutable once created: enrichment (analysis, variations,
// render results) attaches new optional fields, and a rewrite produces a
// brand-new Song linked to its base via ParentID. The Store holds the
// ordered history and the single "current" pointer, and snapshots the
// whole collection to a Persister after every mutation.
//
// Thread safety: Store is safe for concurrent use. All mutations are
// whole-value replacements of the song list, so readers never observe a
// partially applied update.
package song
