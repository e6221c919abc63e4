// Package domain defines the core business entities for ragchat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded text document and its ordered chunks
//   - Chunk: A bounded slice of a document, the unit of retrieval
//   - VectorRecord: The embedding vectors for one document's chunks
//   - ChatStream: A live answer as a sequence of chat events
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
