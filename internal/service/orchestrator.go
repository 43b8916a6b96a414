package service

import (
	"context"
	"log"
	"time"

	"github.com/cloo-solutions/askhr/internal/domain"
)

// State is one step of the orchestration state machine.
type State string

const (
	StateInit              State = "INIT"
	StateAwaitingAgent     State = "AWAITING_AGENT"
	StateToolRequested     State = "TOOL_REQUESTED"
	StateToolExecuted      State = "TOOL_EXECUTED"
	StateFinalAnswer       State = "FINAL_ANSWER"
	StateMaxRoundsExceeded State = "MAX_ROUNDS_EXCEEDED"
	StateAgentError        State = "AGENT_ERROR"
)

// Agent defines the interface to the external language-model agent. One call
// yields either a retrieval request or a final structured answer.
type Agent interface {
	Send(ctx context.Context, turns []domain.Turn) (*domain.AgentReply, error)
}

// EvidenceRetriever defines the retrieval tool interface used by the loop.
type EvidenceRetriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.EvidenceItem, error)
}

// OrchestratorConfig controls the agent loop.
type OrchestratorConfig struct {
	MaxRounds    int
	AgentTimeout time.Duration
	SystemPrompt string
}

// DefaultSystemPrompt fixes the agent role and the evidence-only rule. The
// JSON shape of the final answer is part of the contract.
const DefaultSystemPrompt = `You are an expert on this company's HR policies.
You must never answer from your own knowledge: always call the search_policies tool to find evidence first, and answer strictly from the evidence it returns.
You may call the tool more than once to refine your query.
When you are done, reply with a single JSON object: {"answer": "...", "confidence": 0.0-1.0, "citations": ["chunk ids you used"]}.
If the evidence does not contain the answer, say so, set confidence low and cite nothing.`

// DefaultOrchestratorConfig provides sane defaults for the loop.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MaxRounds:    5,
		AgentTimeout: 60 * time.Second,
		SystemPrompt: DefaultSystemPrompt,
	}
}

// RunStats describes how a single question's loop played out.
type RunStats struct {
	Rounds        int
	EvidenceCount int
	FinalState    State
}

// Orchestrator couples the agent to the retrieval tool, one round at a time,
// bounded by MaxRounds. All per-question state lives in the turn sequence of
// a single Run call, so independent questions can run concurrently.
type Orchestrator struct {
	agent     Agent
	retriever EvidenceRetriever
	validator *AnswerValidator
	cfg       OrchestratorConfig
}

func NewOrchestrator(agent Agent, retriever EvidenceRetriever, validator *AnswerValidator, cfg OrchestratorConfig) *Orchestrator {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultOrchestratorConfig().MaxRounds
	}
	if cfg.AgentTimeout <= 0 {
		cfg.AgentTimeout = DefaultOrchestratorConfig().AgentTimeout
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	return &Orchestrator{agent: agent, retriever: retriever, validator: validator, cfg: cfg}
}

// Run drives the state machine for one question until a terminal state.
// MAX_ROUNDS_EXCEEDED is not an error: it yields a low-confidence,
// insufficient-evidence answer. AGENT_ERROR is surfaced to the caller.
func (o *Orchestrator) Run(ctx context.Context, question string) (*domain.Answer, *RunStats, error) {
	turns := []domain.Turn{
		{Role: domain.TurnRoleSystem, Content: o.cfg.SystemPrompt},
		{Role: domain.TurnRoleUser, Content: question},
	}
	seen := make(map[string]struct{})
	stats := &RunStats{}

	var pending *domain.ToolCall
	var final *domain.FinalPayload

	state := StateInit
	for {
		switch state {
		case StateInit:
			state = StateAwaitingAgent

		case StateAwaitingAgent:
			reply, err := o.sendWithRetry(ctx, turns)
			if err != nil {
				stats.FinalState = StateAgentError
				return nil, stats, err
			}
			if reply.ToolCall != nil {
				pending = reply.ToolCall
				turns = append(turns, domain.Turn{Role: domain.TurnRoleAgent, ToolCall: reply.ToolCall})
				state = StateToolRequested
				break
			}
			final = reply.Final
			state = StateFinalAnswer

		case StateToolRequested:
			if stats.Rounds >= o.cfg.MaxRounds {
				state = StateMaxRoundsExceeded
				break
			}
			evidence, err := o.retriever.Retrieve(ctx, pending.Query)
			if err != nil {
				// A failed retrieval round is reported but does not abort
				// the question; the agent proceeds with zero evidence.
				log.Printf("orchestrator: retrieval round %d failed: %v", stats.Rounds+1, err)
				evidence = []domain.EvidenceItem{}
			}
			for _, item := range evidence {
				seen[item.ChunkID] = struct{}{}
			}
			stats.EvidenceCount += len(evidence)
			turns = append(turns, domain.Turn{Role: domain.TurnRoleTool, ToolCall: pending, Evidence: evidence})
			stats.Rounds++
			state = StateToolExecuted

		case StateToolExecuted:
			pending = nil
			state = StateAwaitingAgent

		case StateFinalAnswer:
			answer, err := o.validator.Validate(final, seen)
			if err != nil {
				stats.FinalState = StateAgentError
				return nil, stats, err
			}
			stats.FinalState = StateFinalAnswer
			return answer, stats, nil

		case StateMaxRoundsExceeded:
			stats.FinalState = StateMaxRoundsExceeded
			return &domain.Answer{
				Text:                 "I could not gather enough evidence to answer within the allowed number of retrieval rounds.",
				Confidence:           ExhaustedConfidence,
				Citations:            []string{},
				InsufficientEvidence: true,
			}, stats, nil
		}
	}
}

// sendWithRetry calls the agent once and retries a single time on a
// malformed or failed reply. The second failure is an AGENT_ERROR.
func (o *Orchestrator) sendWithRetry(ctx context.Context, turns []domain.Turn) (*domain.AgentReply, error) {
	reply, err := o.send(ctx, turns)
	if err == nil {
		return reply, nil
	}
	log.Printf("orchestrator: agent call failed, retrying once: %v", err)

	reply, err = o.send(ctx, turns)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeAgent, "agent call failed after retry", err)
	}
	return reply, nil
}

func (o *Orchestrator) send(ctx context.Context, turns []domain.Turn) (*domain.AgentReply, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.AgentTimeout)
	defer cancel()

	reply, err := o.agent.Send(callCtx, turns)
	if err != nil {
		return nil, err
	}
	if reply == nil || (reply.ToolCall == nil && reply.Final == nil) {
		return nil, domain.ErrMalformedAgentReply
	}
	return reply, nil
}
