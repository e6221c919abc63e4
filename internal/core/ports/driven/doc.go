// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Repository: Transactional persistence of a document and its vectors
//   - DocumentStore: Document and chunk text persistence
//   - VectorStore: Per-document chunk vector persistence
//   - EmbeddingService: Converts text into embedding vectors
//   - LLMService: Streams chat completions
//   - Normaliser: Turns an uploaded file into plain text
//   - PostProcessor: Splits text into chunks
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - PromptStore: User-editable prompt templates. Services fall back to built-in prompts.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
