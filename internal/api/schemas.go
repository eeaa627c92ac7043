package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/dnayak/lifelog/internal/domain"
	"github.com/go-chi/chi/v5"
)

// SchemaStore is the slice of the persistence layer the schema handlers use.
type SchemaStore interface {
	CreateSchema(ctx context.Context, p domain.CreateSchemaParams) (*domain.EventSchema, error)
	GetSchema(ctx context.Context, ownerID, id string) (*domain.EventSchema, error)
	ListSchemas(ctx context.Context, ownerID string) ([]domain.EventSchema, error)
	UpdateSchema(ctx context.Context, ownerID, id string, p domain.UpdateSchemaParams) (*domain.EventSchema, error)
	DeleteSchema(ctx context.Context, ownerID, id string) error
}

type SchemaHandler struct {
	store SchemaStore
}

func NewSchemaHandler(s SchemaStore) *SchemaHandler {
	return &SchemaHandler{store: s}
}

type createSchemaRequest struct {
	Name        string                   `json:"name"`
	Label       string                   `json:"label"`
	Fields      []domain.FieldDefinition `json:"fields"`
	Icon        string                   `json:"icon"`
	Color       string                   `json:"color"`
	DefaultTags []string                 `json:"default_tags"`
}

type updateSchemaRequest struct {
	Label       *string                   `json:"label"`
	Fields      *[]domain.FieldDefinition `json:"fields"`
	Icon        *string                   `json:"icon"`
	Color       *string                   `json:"color"`
	DefaultTags *[]string                 `json:"default_tags"`
}

func (h *SchemaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSchemaRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if err := domain.ValidateSchemaName(name); err != nil {
		respondDomainError(w, err, "failed to create schema")
		return
	}
	if err := domain.ValidateFields(req.Fields); err != nil {
		respondDomainError(w, err, "failed to create schema")
		return
	}

	schema, err := h.store.CreateSchema(r.Context(), domain.CreateSchemaParams{
		OwnerID:     ownerID(r),
		Name:        name,
		Label:       req.Label,
		Fields:      req.Fields,
		Icon:        req.Icon,
		Color:       req.Color,
		DefaultTags: req.DefaultTags,
	})
	if err != nil {
		respondDomainError(w, err, "failed to create schema")
		return
	}
	respondJSON(w, http.StatusCreated, schema)
}

func (h *SchemaHandler) Get(w http.ResponseWriter, r *http.Request) {
	schema, err := h.store.GetSchema(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "failed to get schema")
		return
	}
	respondJSON(w, http.StatusOK, schema)
}

func (h *SchemaHandler) List(w http.ResponseWriter, r *http.Request) {
	schemas, err := h.store.ListSchemas(r.Context(), ownerID(r))
	if err != nil {
		respondDomainError(w, err, "failed to list schemas")
		return
	}
	respondJSON(w, http.StatusOK, map[string][]domain.EventSchema{"schemas": schemas})
}

func (h *SchemaHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateSchemaRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Fields != nil {
		if err := domain.ValidateFields(*req.Fields); err != nil {
			respondDomainError(w, err, "failed to update schema")
			return
		}
	}

	schema, err := h.store.UpdateSchema(r.Context(), ownerID(r), chi.URLParam(r, "id"), domain.UpdateSchemaParams{
		Label:       req.Label,
		Fields:      req.Fields,
		Icon:        req.Icon,
		Color:       req.Color,
		DefaultTags: req.DefaultTags,
	})
	if err != nil {
		respondDomainError(w, err, "failed to update schema")
		return
	}
	respondJSON(w, http.StatusOK, schema)
}

func (h *SchemaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteSchema(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, err, "failed to delete schema")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
