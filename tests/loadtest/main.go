package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"
)

// The daemon under test must poll sourceAddr, e.g. NONOMI_STATUS_URL=http://127.0.0.1:18091/status
// NONOMI_POLL_INTERVAL=100ms.
const (
	baseURL        = "http://127.0.0.1:18090"
	sourceAddr     = "127.0.0.1:18091"
	numWorkers     = 50
	numSubscribers = 20
	testDuration   = 10 * time.Second
)

var actions = []string{"pending", "render", "qr", "inj", ""}

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

// statusSource serves a status document whose timestamp advances every
// advanceEvery, cycling through the actions.
type statusSource struct {
	start        time.Time
	advanceEvery time.Duration
	served       atomic.Int64
}

func (s *statusSource) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.served.Add(1)
	ts := int64(time.Since(s.start)/s.advanceEvery) + 1
	action := actions[ts%int64(len(actions))]

	body, _ := json.Marshal(map[string]any{
		"timestamp":  ts,
		"voice":      "",
		"html":       fmt.Sprintf("<div><h3>tick %d</h3><p>%s</p></div>", ts, action),
		"danmu_text": fmt.Sprintf("tick %d", ts),
		"width":      300,
		"height":     216,
		"action":     action,
		"value":      "http://127.0.0.1/qr",
	})
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func main() {
	fmt.Println("=== NoNoMi Load Test ===")
	fmt.Printf("Workers: %d | Subscribers: %d | Duration: %s\n\n", numWorkers, numSubscribers, testDuration)

	source := &statusSource{start: time.Now(), advanceEvery: 250 * time.Millisecond}
	go func() {
		if err := http.ListenAndServe(sourceAddr, source); err != nil {
			fmt.Printf("status source stopped: %s\n", err)
		}
	}()

	// Wait for server
	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	fmt.Println("\n--- Phase 1: Read load (80% /status, 20% /health) ---")
	runPhase(testDuration, readMix)

	fmt.Println("\n--- Phase 2: Read load with feed subscribers ---")
	ctx, cancel := context.WithCancel(context.Background())
	var received atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < numSubscribers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			subscribe(ctx, &received)
		}()
	}
	runPhase(testDuration, readMix)
	cancel()
	wg.Wait()

	fmt.Printf("\n  Feed events received: %d (%.0f per subscriber)\n", received.Load(), float64(received.Load())/numSubscribers)
	fmt.Printf("  Status source served: %d polls\n", source.served.Load())
}

func readMix(rng *rand.Rand) result {
	if rng.Float64() < 0.8 {
		return doGet("/status")
	}
	return doGet("/health")
}

func subscribe(ctx context.Context, received *atomic.Int64) {
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(baseURL, "http")+"/feed", nil)
	if err != nil {
		fmt.Printf("  subscribe failed: %s\n", err)
		return
	}
	defer conn.CloseNow()

	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
		received.Add(1)
	}
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					results <- workFn(rng)
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-22s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 88))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors,
			fmtDur(avgDuration(s.latencies)),
			fmtDur(percentile(s.latencies, 0.50)),
			fmtDur(percentile(s.latencies, 0.95)),
			fmtDur(percentile(s.latencies, 0.99)))
	}

	if totalOps == 0 {
		return
	}
	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + strings.Repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func doGet(path string) result {
	endpoint := "GET " + path
	start := time.Now()
	resp, err := httpClient.Get(baseURL + path)
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{endpoint, resp.StatusCode, lat, resp.StatusCode != http.StatusOK}
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
