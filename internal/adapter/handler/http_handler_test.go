package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/warehouse-inventory/internal/adapter/storage"
	"github.com/rl1809/warehouse-inventory/internal/core/service"
)

type testEnv struct {
	server *httptest.Server
	store  *storage.SQLAdapter
	logs   *bytes.Buffer
}

type tickClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	clock := &tickClock{t: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	store, err := storage.OpenSQLite(ctx, filepath.Join(t.TempDir(), "api.db"), storage.WithClock(clock.Now))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	svc := service.NewInventoryService(store, service.WithLogger(logger))
	h := NewHTTPHandler(svc, logger)
	server := httptest.NewServer(NewRouter(h, "http://localhost:3000", logger))

	t.Cleanup(func() {
		server.Close()
		store.Close()
	})
	return &testEnv{server: server, store: store, logs: logs}
}

type envelopeBody struct {
	Success          bool              `json:"success"`
	Data             json.RawMessage   `json:"data"`
	Message          string            `json:"message"`
	Error            string            `json:"error"`
	ValidationErrors map[string]string `json:"validationErrors"`
}

type itemBody struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, envelopeBody) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var env envelopeBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (e *testEnv) create(t *testing.T, body string) itemBody {
	t.Helper()
	status, env := e.do(t, http.MethodPost, "/api/items", body)
	require.Equal(t, http.StatusCreated, status, "error: %s %v", env.Error, env.ValidationErrors)
	var item itemBody
	require.NoError(t, json.Unmarshal(env.Data, &item))
	return item
}

func TestCreateAndGet(t *testing.T) {
	env := setupTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/items", `{"name":"Pen","category":"Stationery","price":5,"stock":100}`)
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, body.Success)
	assert.Equal(t, "Item created successfully", body.Message)

	var created itemBody
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	status, body = env.do(t, http.MethodGet, "/api/items/"+itoa(created.ID), "")
	require.Equal(t, http.StatusOK, status)

	var got itemBody
	require.NoError(t, json.Unmarshal(body.Data, &got))
	assert.Equal(t, created, got)
	assert.Equal(t, 5.0, got.Price)
}

func TestCreate_ValidationFailed(t *testing.T) {
	env := setupTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/items", `{"name":"","category":"Stationery","price":-5,"stock":1.5}`)
	require.Equal(t, http.StatusBadRequest, status)
	assert.False(t, body.Success)
	assert.Equal(t, "Validation failed", body.Error)
	assert.Equal(t, map[string]string{
		"name":  "Name is required",
		"price": "Price must be a valid non-negative number",
		"stock": "Stock must be a valid non-negative integer",
	}, body.ValidationErrors)

	_, list := env.do(t, http.MethodGet, "/api/items", "")
	assert.JSONEq(t, `[]`, string(list.Data))
}

func TestCreate_MalformedBody(t *testing.T) {
	env := setupTestEnv(t)

	valid := `{"name":"Pen","category":"Stationery","price":1,"stock":1}`
	for _, raw := range []string{
		`{"name":`,
		valid + `garbage`,
		valid + `}`,
		valid + ` {"name":"Other"}`,
	} {
		status, body := env.do(t, http.MethodPost, "/api/items", raw)
		assert.Equal(t, http.StatusBadRequest, status, raw)
		assert.Equal(t, "Invalid request body", body.Error, raw)
	}

	status, _ := env.do(t, http.MethodPost, "/api/items", valid+"\n")
	assert.Equal(t, http.StatusCreated, status, "trailing whitespace is allowed")

	status, body := env.do(t, http.MethodGet, "/api/items", "")
	require.Equal(t, http.StatusOK, status)
	var items []itemBody
	require.NoError(t, json.Unmarshal(body.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Pen", items[0].Name)
}

func TestGet_InvalidAndMissingID(t *testing.T) {
	env := setupTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/api/items/abc", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid item ID", body.Error)

	status, _ = env.do(t, http.MethodGet, "/api/items/-4", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, http.MethodGet, "/api/items/999", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Item not found", body.Error)
}

func TestListSearchAndCategory(t *testing.T) {
	env := setupTestEnv(t)

	mouse := env.create(t, `{"name":"Wireless Mouse","category":"Electronics","price":29.99,"stock":42}`)
	env.create(t, `{"name":"Desk Lamp","category":"Furniture","price":24.99,"stock":23}`)
	ssd := env.create(t, `{"name":"External SSD 1TB","category":"Electronics","price":129.99,"stock":18}`)

	decode := func(raw json.RawMessage) []itemBody {
		var items []itemBody
		require.NoError(t, json.Unmarshal(raw, &items))
		return items
	}

	_, body := env.do(t, http.MethodGet, "/api/items", "")
	all := decode(body.Data)
	require.Len(t, all, 3)
	assert.Equal(t, ssd.ID, all[0].ID, "newest first")

	_, body = env.do(t, http.MethodGet, "/api/items?search=mOuSe", "")
	found := decode(body.Data)
	require.Len(t, found, 1)
	assert.Equal(t, mouse.ID, found[0].ID)

	_, body = env.do(t, http.MethodGet, "/api/items?category=Electronics&search=ssd", "")
	found = decode(body.Data)
	require.Len(t, found, 1)
	assert.Equal(t, ssd.ID, found[0].ID)
}

func TestUpdate(t *testing.T) {
	env := setupTestEnv(t)
	item := env.create(t, `{"name":"Pen","category":"Stationery","price":5,"stock":100}`)

	status, body := env.do(t, http.MethodPut, "/api/items/"+itoa(item.ID), `{"name":"Pen","category":"Stationery","price":5,"stock":5}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Item updated successfully", body.Message)

	var updated itemBody
	require.NoError(t, json.Unmarshal(body.Data, &updated))
	assert.Equal(t, 5, updated.Stock)
	assert.Equal(t, item.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(item.UpdatedAt))

	status, _ = env.do(t, http.MethodPut, "/api/items/777", `{"name":"Pen","category":"Stationery","price":5,"stock":5}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = env.do(t, http.MethodPut, "/api/items/"+itoa(item.ID), `{"stock":-1}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body.ValidationErrors, "stock")
}

func TestDelete(t *testing.T) {
	env := setupTestEnv(t)
	item := env.create(t, `{"name":"Pen","category":"Stationery","price":5,"stock":100}`)

	status, body := env.do(t, http.MethodDelete, "/api/items/"+itoa(item.ID), "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Item deleted successfully", body.Message)
	assert.Empty(t, body.Data)

	status, _ = env.do(t, http.MethodGet, "/api/items/"+itoa(item.ID), "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodDelete, "/api/items/"+itoa(item.ID), "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStatsAndCategories(t *testing.T) {
	env := setupTestEnv(t)
	env.create(t, `{"name":"Pen","category":"Stationery","price":5,"stock":100}`)
	book := env.create(t, `{"name":"Book","category":"Books","price":20,"stock":2}`)

	status, body := env.do(t, http.MethodGet, "/api/items/stats", "")
	require.Equal(t, http.StatusOK, status)

	var stats struct {
		TotalItems    int        `json:"totalItems"`
		TotalValue    float64    `json:"totalValue"`
		Categories    []string   `json:"categories"`
		LowStockCount int        `json:"lowStockCount"`
		LowStockItems []itemBody `json:"lowStockItems"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &stats))
	assert.Equal(t, 2, stats.TotalItems)
	assert.Equal(t, 540.0, stats.TotalValue)
	assert.Equal(t, []string{"Books", "Stationery"}, stats.Categories)
	assert.Equal(t, 1, stats.LowStockCount)
	require.Len(t, stats.LowStockItems, 1)
	assert.Equal(t, book.ID, stats.LowStockItems[0].ID)

	status, body = env.do(t, http.MethodGet, "/api/items/categories", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `["Books","Stationery"]`, string(body.Data))
}

func TestStats_Empty(t *testing.T) {
	env := setupTestEnv(t)

	_, body := env.do(t, http.MethodGet, "/api/items/stats", "")
	assert.JSONEq(t, `{"totalItems":0,"totalValue":0,"categories":[],"lowStockCount":0,"lowStockItems":[]}`, string(body.Data))
}

func TestUnexpectedFailureIsOpaque(t *testing.T) {
	env := setupTestEnv(t)
	require.NoError(t, env.store.Close())

	status, body := env.do(t, http.MethodGet, "/api/items", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to fetch items", body.Error)
	assert.NotContains(t, body.Error, "sql")
	assert.Contains(t, env.logs.String(), "database is closed")
}

func TestHealthAndDocs(t *testing.T) {
	env := setupTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, status)
	var health map[string]string
	require.NoError(t, json.Unmarshal(body.Data, &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "Warehouse Inventory API", health["service"])

	status, body = env.do(t, http.MethodGet, "/api-docs", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), "GET /api/items/stats")
}

func TestUnknownRouteAndMethod(t *testing.T) {
	env := setupTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/api/nothing?x=1", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Route /api/nothing?x=1 not found", body.Error)

	status, body = env.do(t, http.MethodPatch, "/api/items/1", "")
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.False(t, body.Success)
}

func TestConcurrentWrites(t *testing.T) {
	env := setupTestEnv(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(env.server.URL+"/api/items", "application/json",
				strings.NewReader(`{"name":"Pen","category":"Stationery","price":1,"stock":1}`))
			if !assert.NoError(t, err) {
				return
			}
			resp.Body.Close()
			assert.Equal(t, http.StatusCreated, resp.StatusCode)
		}()
	}
	wg.Wait()

	n, err := env.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
