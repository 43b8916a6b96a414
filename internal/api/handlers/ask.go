package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/askhr/internal/api"
	"github.com/cloo-solutions/askhr/internal/domain"
)

type QuestionAnswerer interface {
	AnswerQuestion(ctx context.Context, question string) (*domain.Answer, error)
}

type AskHandler struct {
	svc QuestionAnswerer
}

func NewAskHandler(svc QuestionAnswerer) *AskHandler {
	return &AskHandler{svc: svc}
}

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Answer               string   `json:"answer"`
	Confidence           float64  `json:"confidence"`
	Citations            []string `json:"citations"`
	InsufficientEvidence bool     `json:"insufficient_evidence"`
}

func answerToResponse(a *domain.Answer) *AskResponse {
	citations := a.Citations
	if citations == nil {
		citations = []string{}
	}
	return &AskResponse{
		Answer:               a.Text,
		Confidence:           a.Confidence,
		Citations:            citations,
		InsufficientEvidence: a.InsufficientEvidence,
	}
}

func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.svc.AnswerQuestion(r.Context(), req.Question)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, answerToResponse(answer))
}
