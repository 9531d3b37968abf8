package domain

// Message is a single persisted conversation turn. Question holds the user
// text as received; Answer holds the shaped assistant reply (never the
// rendered HTML, which is recomputed on demand).
type Message struct {
	PK             string
	SK             string
	ConversationID string
	Question       string
	Answer         string
	Tokens         int
	Status         string
	TTL            int64
}

// ConversationMeta stores aggregate conversation state.
type ConversationMeta struct {
	PK             string
	SK             string
	ConversationID string
	LastActivity   string
	Turns          int
	TTL            int64
}
