package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cloo-solutions/askhr/internal/api"
	"github.com/cloo-solutions/askhr/internal/domain"
	"github.com/cloo-solutions/askhr/internal/service"
	"github.com/go-chi/chi/v5"
)

type DocumentServiceInterface interface {
	Ingest(ctx context.Context, input service.IngestInput) (*domain.Document, error)
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListDocuments(ctx context.Context, input service.ListDocumentsInput) (*service.ListDocumentsOutput, error)
}

type DocumentHandler struct {
	svc DocumentServiceInterface
}

func NewDocumentHandler(svc DocumentServiceInterface) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type PageMarkerRequest struct {
	Page   int `json:"page"`
	Offset int `json:"offset"`
}

type IngestDocumentRequest struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	SourcePath  string              `json:"source_path"`
	Body        string              `json:"body"`
	PageMarkers []PageMarkerRequest `json:"page_markers"`
}

type DocumentResponse struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	SourcePath string `json:"source_path,omitempty"`
	BodyChars  int    `json:"body_chars"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type ListDocumentsResponse struct {
	Items   []*DocumentResponse `json:"items"`
	Cursor  string              `json:"cursor,omitempty"`
	HasMore bool                `json:"has_more"`
}

func documentToResponse(d *domain.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:         d.ID,
		Title:      d.Title,
		SourcePath: d.SourcePath,
		BodyChars:  len(d.Body),
		CreatedAt:  d.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:  d.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *DocumentHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	markers := make([]domain.PageMarker, 0, len(req.PageMarkers))
	for _, m := range req.PageMarkers {
		markers = append(markers, domain.PageMarker{Page: m.Page, Offset: m.Offset})
	}

	input := service.IngestInput{
		ID:          req.ID,
		Title:       req.Title,
		SourcePath:  req.SourcePath,
		Body:        req.Body,
		PageMarkers: markers,
	}

	doc, err := h.svc.Ingest(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, documentToResponse(doc))
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	doc, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, documentToResponse(doc))
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	out, err := h.svc.ListDocuments(r.Context(), service.ListDocumentsInput{
		Cursor: r.URL.Query().Get("cursor"),
		Limit:  limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*DocumentResponse, 0, len(out.Items))
	for _, d := range out.Items {
		items = append(items, documentToResponse(d))
	}

	api.Success(w, http.StatusOK, &ListDocumentsResponse{
		Items:   items,
		Cursor:  out.Cursor,
		HasMore: out.HasMore,
	})
}
