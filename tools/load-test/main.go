package main

import (
	"bytes"
	"flag"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080/api/v1", "API base URL")
	requests := flag.Int("requests", 2000, "Read requests to send")
	concurrency := flag.Int("concurrency", 50, "Concurrent requests")
	flag.Parse()

	client := &http.Client{Timeout: 30 * time.Second}

	// One refresh populates the store; the time clock is far too slow to hammer.
	start := time.Now()
	resp, err := client.Post(*baseURL+"/days/refresh", "application/json", nil)
	if err != nil {
		fmt.Printf("Refresh failed: %v\n", err)
		return
	}
	resp.Body.Close()
	fmt.Printf("Refresh: %s in %v\n", resp.Status, time.Since(start))

	targets := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/days", ""},
		{http.MethodGet, "/days/pending", ""},
		{http.MethodGet, "/days/today/expected-end", ""},
		{http.MethodPut, "/days/" + time.Now().Format("2006-01-02") + "/justification", `{"justification":"load test"}`},
	}

	fmt.Printf("Starting load test: %d requests to %s with concurrency %d\n", *requests, *baseURL, *concurrency)

	var success, fail, rejected atomic.Int64
	var g errgroup.Group
	g.SetLimit(*concurrency)

	start = time.Now()
	for i := 0; i < *requests; i++ {
		target := targets[i%len(targets)]
		g.Go(func() error {
			req, err := http.NewRequest(target.method, *baseURL+target.path, bytes.NewBufferString(target.body))
			if err != nil {
				fail.Add(1)
				return nil
			}
			resp, err := client.Do(req)
			if err != nil {
				fail.Add(1)
				return nil
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode < 300:
				success.Add(1)
			case resp.StatusCode < 500:
				// Justifying a day without overtime is a 400; still a served request.
				rejected.Add(1)
			default:
				fail.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	duration := time.Since(start)

	fmt.Println("\n--- Load Test Results ---")
	fmt.Printf("Total Duration: %v\n", duration)
	fmt.Printf("Total Requests: %d\n", *requests)
	fmt.Printf("Successful:     %d\n", success.Load())
	fmt.Printf("Rejected (4xx): %d\n", rejected.Load())
	fmt.Printf("Failed:         %d\n", fail.Load())
	fmt.Printf("Requests/Sec:   %.2f\n", float64(*requests)/duration.Seconds())
}
