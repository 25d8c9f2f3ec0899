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
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer synthesises an answer from retrieved context.
	// The template uses the {context_str} and {query_str} placeholders.
	PromptAnswer = "answer"
)

// DefaultAnswerPrompt asks for a concise Spanish answer grounded only in the
// supplied context.
const DefaultAnswerPrompt = `La información de contexto se encuentra a continuación.
---------------------
{context_str}
---------------------
Dada la información de contexto y sin conocimiento previo, responde a la consulta en el lenguaje español. Sea conciso en su respuesta. Si no conoce la respuesta no responda.
Consulta: {query_str}
Respuesta: `

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
