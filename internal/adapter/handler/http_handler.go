package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/rl1809/warehouse-inventory/internal/core/domain"
	"github.com/rl1809/warehouse-inventory/internal/core/service"
)

const (
	serviceName  = "Warehouse Inventory API"
	maxBodyBytes = 1 << 20
)

type HTTPHandler struct {
	inventory *service.InventoryService
	logger    *slog.Logger
	now       func() time.Time
}

func NewHTTPHandler(inventory *service.InventoryService, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{inventory: inventory, logger: logger, now: time.Now}
}

func (h *HTTPHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.inventory.List(r.Context(), domain.Filter{
		Text:     q.Get("search"),
		Category: q.Get("category"),
	})
	if err != nil {
		h.fail(w, r, err, "Failed to fetch items")
		return
	}

	writeJSON(w, http.StatusOK, Ok[[]itemResponse]{Data: newItemsResponse(items)})
}

func (h *HTTPHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch item")
		return
	}

	item, err := h.inventory.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch item")
		return
	}

	writeJSON(w, http.StatusOK, Ok[itemResponse]{Data: newItemResponse(*item)})
}

func (h *HTTPHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	item, err := h.inventory.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, "Failed to create item")
		return
	}

	writeJSON(w, http.StatusCreated, Ok[itemResponse]{
		Data:    newItemResponse(*item),
		Message: "Item created successfully",
	})
}

func (h *HTTPHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, r, err, "Failed to update item")
		return
	}

	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	item, err := h.inventory.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err, "Failed to update item")
		return
	}

	writeJSON(w, http.StatusOK, Ok[itemResponse]{
		Data:    newItemResponse(*item),
		Message: "Item updated successfully",
	})
}

func (h *HTTPHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, r, err, "Failed to delete item")
		return
	}

	if err := h.inventory.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, "Failed to delete item")
		return
	}

	writeJSON(w, http.StatusOK, Ok[any]{Message: "Item deleted successfully"})
}

func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.inventory.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to fetch statistics")
		return
	}

	writeJSON(w, http.StatusOK, Ok[statsResponse]{Data: newStatsResponse(*stats)})
}

func (h *HTTPHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.inventory.Categories(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to fetch categories")
		return
	}

	writeJSON(w, http.StatusOK, Ok[[]string]{Data: categories})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok[map[string]string]{Data: map[string]string{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"service":   serviceName,
	}})
}

func (h *HTTPHandler) APIDocs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok[map[string]map[string]string]{Data: map[string]map[string]string{
		"endpoints": {
			"GET /api/items":            "Get all inventory items",
			"GET /api/items/:id":        "Get single item",
			"POST /api/items":           "Create new item",
			"PUT /api/items/:id":        "Update item",
			"DELETE /api/items/:id":     "Delete item",
			"GET /api/items/stats":      "Get inventory statistics",
			"GET /api/items/categories": "Get all categories",
			"GET /health":               "Health check",
		},
		"queryParameters": {
			"search":   "Search items by name or category",
			"category": "Filter by category",
		},
	}})
}

func (h *HTTPHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, Fail{Error: "Route " + r.URL.RequestURI() + " not found"})
}

func (h *HTTPHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, Fail{Error: "Method " + r.Method + " not allowed"})
}

func (h *HTTPHandler) decodeInput(w http.ResponseWriter, r *http.Request) (domain.ItemInput, bool) {
	var in domain.ItemInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail{Error: "Invalid request body"})
		return in, false
	}
	// The body must hold exactly one JSON value.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, Fail{Error: "Invalid request body"})
		return in, false
	}
	return in, true
}

// fail maps err onto a status and envelope. Anything that is not a known
// domain error is logged and reported with the opaque message only.
func (h *HTTPHandler) fail(w http.ResponseWriter, r *http.Request, err error, opaque string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, Fail{Error: "Validation failed", ValidationErrors: verr.Fields})
	case errors.Is(err, domain.ErrInvalidIdentifier):
		writeJSON(w, http.StatusBadRequest, Fail{Error: "Invalid item ID"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Fail{Error: "Item not found"})
	default:
		h.logger.ErrorContext(r.Context(), opaque,
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestID(r.Context()),
		)
		writeJSON(w, http.StatusInternalServerError, Fail{Error: opaque})
	}
}

func parseID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(mux.Vars(r)["id"])
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidIdentifier
	}
	return id, nil
}
