package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cloo-solutions/askhr/internal/domain"
)

const (
	// ExhaustedConfidence is forced onto answers produced after the round
	// limit was hit.
	ExhaustedConfidence = 0.1
	// UncitedConfidenceCap bounds the confidence of a non-trivial answer
	// that cites no evidence.
	UncitedConfidenceCap = 0.25

	// Confidence slightly outside [0,1] is clamped; beyond these bounds it
	// is rejected as nonsense.
	confidenceRejectLow  = -0.5
	confidenceRejectHigh = 1.5
)

// AnswerValidator enforces the structural and grounding invariants on the
// agent's claimed final answer before it reaches the caller.
type AnswerValidator struct{}

func NewAnswerValidator() *AnswerValidator {
	return &AnswerValidator{}
}

// Validate normalizes the raw payload into an Answer. seen holds every chunk
// ID that appeared in an evidence item during this conversation; citing
// anything else is a grounding violation and is never silently dropped.
func (v *AnswerValidator) Validate(payload *domain.FinalPayload, seen map[string]struct{}) (*domain.Answer, error) {
	if payload == nil {
		return nil, domain.ErrMalformedAgentReply
	}
	if payload.Confidence == nil {
		return nil, domain.ErrMissingConfidence
	}

	confidence := *payload.Confidence
	if math.IsNaN(confidence) || math.IsInf(confidence, 0) ||
		confidence < confidenceRejectLow || confidence > confidenceRejectHigh {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeAgent,
			fmt.Sprintf("confidence %v is outside any plausible range", confidence),
			domain.ErrInvalidConfidence)
	}
	confidence = math.Min(math.Max(confidence, 0.0), 1.0)

	citations := dedupeCitations(payload.Citations)
	var fabricated []string
	for _, id := range citations {
		if _, ok := seen[id]; !ok {
			fabricated = append(fabricated, id)
		}
	}
	if len(fabricated) > 0 {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeAgent,
			fmt.Sprintf("citations not backed by retrieved evidence: %s", strings.Join(fabricated, ", ")),
			domain.ErrFabricatedCitation)
	}

	answer := &domain.Answer{
		Text:       payload.Answer,
		Confidence: confidence,
		Citations:  citations,
	}

	// An agent must not assert grounded content without citing evidence
	// actually retrieved in this conversation.
	if len(citations) == 0 {
		answer.InsufficientEvidence = true
		if strings.TrimSpace(payload.Answer) != "" {
			answer.Confidence = math.Min(answer.Confidence, UncitedConfidenceCap)
		}
	}

	return answer, nil
}

func dedupeCitations(citations []string) []string {
	out := make([]string, 0, len(citations))
	seen := make(map[string]struct{}, len(citations))
	for _, id := range citations {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
