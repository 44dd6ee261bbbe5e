package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type options struct {
	baseURL  string
	requests int
	price    float64
	stock    int
}

func main() {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "smoke",
		Short:        "Create, verify and delete items concurrently against a running server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.baseURL, "url", "http://localhost:5000", "server base URL")
	cmd.Flags().IntVar(&opts.requests, "requests", 50, "number of concurrent creates")
	cmd.Flags().Float64Var(&opts.price, "price", 2.5, "price of each created item")
	cmd.Flags().IntVar(&opts.stock, "stock", 4, "stock of each created item")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options) error {
	client := &http.Client{Timeout: 10 * time.Second}
	category := "smoke-" + uuid.NewString()[:8]

	var (
		successCount atomic.Int32
		failCount    atomic.Int32
		mu           sync.Mutex
		ids          []int64
		wg           sync.WaitGroup
	)

	start := time.Now()
	for i := 0; i < opts.requests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			body, _ := json.Marshal(map[string]any{
				"name":     fmt.Sprintf("smoke item %d", n),
				"category": category,
				"price":    opts.price,
				"stock":    opts.stock,
			})
			var created struct {
				ID int64 `json:"id"`
			}
			status, err := call(ctx, client, http.MethodPost, opts.baseURL+"/api/items", body, &created)
			if err != nil || status != http.StatusCreated {
				failCount.Add(1)
				return
			}
			successCount.Add(1)
			mu.Lock()
			ids = append(ids, created.ID)
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	var listed []json.RawMessage
	if _, err := call(ctx, client, http.MethodGet, opts.baseURL+"/api/items?category="+category, nil, &listed); err != nil {
		return fmt.Errorf("list: %w", err)
	}

	fmt.Println("========== SMOKE TEST RESULTS ==========")
	fmt.Printf("Requests:         %d\n", opts.requests)
	fmt.Printf("Created:          %d\n", successCount.Load())
	fmt.Printf("Failed:           %d\n", failCount.Load())
	fmt.Printf("Listed:           %d\n", len(listed))
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("=========================================")

	failed := false
	if int(successCount.Load()) != opts.requests || len(listed) != opts.requests {
		fmt.Printf("FAIL: expected %d items, created %d, listed %d\n", opts.requests, successCount.Load(), len(listed))
		failed = true
	} else {
		fmt.Printf("PASS: all %d items created and listed\n", opts.requests)
	}

	for _, id := range ids {
		status, err := call(ctx, client, http.MethodDelete, fmt.Sprintf("%s/api/items/%d", opts.baseURL, id), nil, nil)
		if err != nil || status != http.StatusOK {
			fmt.Printf("FAIL: delete %d: status %d err %v\n", id, status, err)
			failed = true
		}
	}

	if failed {
		return fmt.Errorf("smoke test failed")
	}
	fmt.Println("PASS: cleanup complete")
	return nil
}

func call(ctx context.Context, client *http.Client, method, url string, body []byte, data any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		return resp.StatusCode, fmt.Errorf("%s", env.Error)
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			return resp.StatusCode, fmt.Errorf("decode data: %w", err)
		}
	}
	return resp.StatusCode, nil
}
