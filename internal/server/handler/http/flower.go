package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/atinyakov/flowerdaily/internal/models"
	"github.com/go-chi/chi/v5"
)

// maxRandomBody caps the public selection request, which carries every
// flower ID the client has already seen.
const maxRandomBody = 256 << 10

// SelectionService defines the random selection required by the FlowerHandler.
type SelectionService interface {
	SelectBatch(ctx context.Context, excluded []string, count int) (models.Batch, error)
}

// FlowerService defines the catalogue operations required by the FlowerHandler.
type FlowerService interface {
	List(ctx context.Context) ([]models.Flower, error)
	Get(ctx context.Context, id string) (models.Flower, error)
	Create(ctx context.Context, f models.Flower) (models.Flower, error)
	Update(ctx context.Context, f models.Flower) (models.Flower, error)
	Delete(ctx context.Context, id string) error
}

// FlowerHandler serves the public flower cards and the catalogue admin.
type FlowerHandler struct {
	Selection SelectionService
	Flowers   FlowerService
}

// RandomRequest is the body of POST /api/flowers/random.
type RandomRequest struct {
	// SeenIDs lists the flowers already shown to the caller.
	SeenIDs []string `json:"seenIds"`
	// Count is the number of flowers wanted. Zero means one.
	Count int `json:"count"`
}

// Random handles POST /api/flowers/random. An empty body asks for one
// flower with nothing seen.
func (h *FlowerHandler) Random(w http.ResponseWriter, r *http.Request) {
	var req RandomRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRandomBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	batch, err := h.Selection.SelectBatch(r.Context(), req.SeenIDs, req.Count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

// List handles GET /admin/flowers.
func (h *FlowerHandler) List(w http.ResponseWriter, r *http.Request) {
	flowers, err := h.Flowers.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if flowers == nil {
		flowers = []models.Flower{}
	}
	writeJSON(w, http.StatusOK, flowers)
}

// Get handles GET /api/flowers/{id} and GET /admin/flowers/{id}.
func (h *FlowerHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := h.Flowers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// Create handles POST /admin/flowers.
func (h *FlowerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var f models.Flower
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	created, err := h.Flowers.Create(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /admin/flowers/{id}. The ID in the path wins over the body.
func (h *FlowerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var f models.Flower
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	f.ID = chi.URLParam(r, "id")
	updated, err := h.Flowers.Update(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /admin/flowers/{id}.
func (h *FlowerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Flowers.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
