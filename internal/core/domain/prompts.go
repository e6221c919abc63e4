package domain

// Default prompt templates, keyed by the names in driven.PromptStore.
// The RAG user template takes two %s verbs: the excerpt block, then the question.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	"rag_system": `You are a document question-answering assistant. Answer the user's question using only the document excerpts provided.
If the excerpts do not contain the answer, say clearly that the documents do not contain enough information to answer. Do not invent facts.
Answer in the same language as the question.`,

	"rag_user": `Document excerpts:

%s

Question: %s`,

	"general_system": `You are a warm, friendly and helpful assistant. Answer the user's questions clearly and accurately, keep a natural conversational tone, and admit when you are not sure about something.`,
}

// DefaultPrompt returns the built-in template for a prompt name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// DefaultPromptNames lists the names that have built-in templates.
func DefaultPromptNames() []string {
	return []string{"rag_system", "rag_user", "general_system"}
}
