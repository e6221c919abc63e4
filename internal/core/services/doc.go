// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Ingest runs normalise, chunk, embed and one transactional save.
// Chat retrieves excerpts by linear cosine scan and streams the
// completion back as events, falling back to general chat when a
// document has nothing to offer.
package services
