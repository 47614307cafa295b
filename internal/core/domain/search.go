package domain

// DecisionQuery selects decisions. At most one retrieval mode applies:
// a TextID lookup, or a listing optionally narrowed by Chambre and Search.
// Chambre and Search together are intersected.
type DecisionQuery struct {
	// TextID requests a single decision.
	TextID string

	// Chambre restricts to an exact chamber. A pointer to "" selects
	// decisions with no chamber.
	Chambre *string

	// Search is a free-text query ranked by relevance.
	Search string

	// Limit is the maximum number of results.
	Limit int

	// Offset is the number of results to skip.
	Offset int
}

// DecisionFilter narrows store reads.
type DecisionFilter struct {
	// Chambre, when non-nil, must match exactly.
	Chambre *string
}

// Page bounds a store read.
type Page struct {
	Limit  int
	Offset int
}
