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
//   - DocumentSearchProvider: Fetches hits for a query (NEXUS PJ)
//   - EmbeddingService: Generates vector embeddings
//   - VectorStore: Chunk vector persistence and similarity search
//   - PostProcessorPipeline: Segments document text into chunks
//   - WriterLock: Serialises writers of a collection
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RelevanceScorer: Second-stage reranking. Without it, vector order is kept.
//   - KeywordExtractor: Compacts queries before they reach the provider.
//   - LLMService: Answer synthesis. Without it, only search is available.
//   - PromptStore: Custom prompt templates. Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
