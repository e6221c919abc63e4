package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptRAGSystem restricts the model to the supplied excerpts.
	// This prompt has no format placeholders.
	PromptRAGSystem = "rag_system"

	// PromptRAGUser frames the excerpts and the question.
	// The template expects two %s placeholders: the excerpt block, then the question.
	PromptRAGUser = "rag_user"

	// PromptGeneralSystem is the assistant persona used without document context.
	// This prompt has no format placeholders.
	PromptGeneralSystem = "general_system"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
