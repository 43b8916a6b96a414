package domain

// TurnRole identifies the author of a conversation turn.
type TurnRole string

const (
	TurnRoleSystem TurnRole = "system"
	TurnRoleUser   TurnRole = "user"
	TurnRoleAgent  TurnRole = "agent"
	TurnRoleTool   TurnRole = "tool"
)

// ToolCall is the agent's request to run the retrieval tool with a query.
type ToolCall struct {
	ID    string
	Query string
}

// Turn is one exchange in the orchestration loop. The sequence of turns is
// append-only for the lifetime of a single question and discarded afterwards.
type Turn struct {
	Role    TurnRole
	Content string
	// ToolCall is set on agent turns that request retrieval.
	ToolCall *ToolCall
	// Evidence is set on tool turns and carries the retrieval result.
	Evidence []EvidenceItem
}

// FinalPayload is the agent's raw claimed answer, before validation.
// Confidence is a pointer so an absent score can be told apart from 0.
type FinalPayload struct {
	Answer     string   `json:"answer"`
	Confidence *float64 `json:"confidence"`
	Citations  []string `json:"citations"`
}

// AgentReply is what one agent call produces: exactly one of ToolCall or
// Final is set.
type AgentReply struct {
	ToolCall *ToolCall
	Final    *FinalPayload
}
