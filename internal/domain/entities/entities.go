// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import "time"

// Record is one structured fact unit from the knowledge base: a course, a
// policy section, a requirement table. Records are loaded once at startup and
// never mutated at runtime.
type Record struct {
	// SourceID is the stable identifier every derived chunk traces back to,
	// e.g. "CS_BS_Major_Master_Document" or "COMP SCI 300.json".
	SourceID string
	// Content is the record's nested key-value payload.
	Content map[string]any
}

// Chunk is a bounded text span derived from exactly one Record.
// Consecutive chunks from the same record overlap by a fixed character count
// so facts spanning a split point stay retrievable.
type Chunk struct {
	ID       string
	SourceID string
	Content  string
	Index    int       // Position within the source record
	Vector   []float32 // Embedding, populated at index time
}

// RetrievedChunk pairs a chunk with a relevance score. After vector search the
// score is cosine similarity; after reranking it is the cross-encoder score.
type RetrievedChunk struct {
	Chunk Chunk
	Score float64
}

// Turn roles. A session history only ever contains these two.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one (role, content) pair in a session. Ordered, append-only,
// immutable after creation.
type Turn struct {
	Role      string
	Content   string
	CreatedAt time.Time
}

// AskRequest is one inbound question. An empty SessionID starts a new
// conversation.
type AskRequest struct {
	Question  string
	SessionID string
}

// AskResponse carries the answer and the session id the caller must echo to
// continue the conversation.
type AskResponse struct {
	Answer    string
	SessionID string
}
