package domain

// Answer is the validated, normalized output returned to the caller.
// Confidence is always in [0.0, 1.0] and every citation refers to a chunk
// that was actually retrieved during the question's conversation.
type Answer struct {
	Text                 string   `json:"answer"`
	Confidence           float64  `json:"confidence"`
	Citations            []string `json:"citations"`
	InsufficientEvidence bool     `json:"insufficient_evidence"`
}
