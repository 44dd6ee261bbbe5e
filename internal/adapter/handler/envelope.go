package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rl1809/warehouse-inventory/internal/core/domain"
)

// Envelope is the body of every response. It is either Ok or Fail.
type Envelope interface {
	envelope()
}

type Ok[T any] struct {
	Data    T
	Message string
}

type Fail struct {
	Error            string
	ValidationErrors domain.ValidationErrors
}

func (Ok[T]) envelope() {}
func (Fail) envelope()  {}

func (o Ok[T]) MarshalJSON() ([]byte, error) {
	wire := struct {
		Success bool   `json:"success"`
		Data    any    `json:"data,omitempty"`
		Message string `json:"message,omitempty"`
	}{Success: true, Message: o.Message}
	if d := any(o.Data); d != nil {
		wire.Data = d
	}
	return json.Marshal(wire)
}

func (f Fail) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Success          bool              `json:"success"`
		Error            string            `json:"error"`
		ValidationErrors map[string]string `json:"validationErrors,omitempty"`
	}{Error: f.Error, ValidationErrors: f.ValidationErrors})
}

func writeJSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

type itemResponse struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Category  string      `json:"category"`
	Price     json.Number `json:"price"`
	Stock     int         `json:"stock"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func newItemResponse(i domain.Item) itemResponse {
	return itemResponse{
		ID:        i.ID,
		Name:      i.Name,
		Category:  i.Category,
		Price:     json.Number(i.Price.String()),
		Stock:     i.Stock,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

func newItemsResponse(items []domain.Item) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, newItemResponse(i))
	}
	return out
}

type statsResponse struct {
	TotalItems    int            `json:"totalItems"`
	TotalValue    json.Number    `json:"totalValue"`
	Categories    []string       `json:"categories"`
	LowStockCount int            `json:"lowStockCount"`
	LowStockItems []itemResponse `json:"lowStockItems"`
}

func newStatsResponse(s domain.Stats) statsResponse {
	categories := s.Categories
	if categories == nil {
		categories = []string{}
	}
	return statsResponse{
		TotalItems:    s.TotalItems,
		TotalValue:    json.Number(s.TotalValue.Round(2).String()),
		Categories:    categories,
		LowStockCount: s.LowStockCount,
		LowStockItems: newItemsResponse(s.LowStockItems),
	}
}
