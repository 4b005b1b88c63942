package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"

	flag "github.com/spf13/pflag"
)

// Config holds the benchmark settings
var (
	targetURL   string
	concurrency int
	duration    time.Duration
	workload    string
	outFile     string
)

// Metrics
var (
	totalRequests uint64
	success200    uint64
	fail4xx       uint64
	fail5xx       uint64
	failOther     uint64
	collisions    uint64

	seenMu    sync.Mutex
	seenFinal = map[string]struct{}{}
)

var documentTypes = []string{"sales_contract", "lease_agreement", "addendum", "disclosure"}

func init() {
	flag.StringVarP(&targetURL, "url", "u", "http://localhost:5001", "API base URL")
	flag.IntVarP(&concurrency, "workers", "w", 10, "number of concurrent workers")
	flag.DurationVarP(&duration, "duration", "d", 30*time.Second, "test duration")
	flag.StringVar(&workload, "workload", "mixed", "workload type: mixed | single")
	flag.StringVarP(&outFile, "out", "o", "", "results file (default results_<workload>.json)")
}

func main() {
	flag.Parse()
	log.Printf("Starting benchmark: %s | workers: %d | duration: %s", workload, concurrency, duration)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start)
	}

	wg.Wait()
	printResults(time.Since(start))
}

func worker(wg *sync.WaitGroup, start time.Time) {
	defer wg.Done()
	// generation is slow against a real backend; run the server with GENERATOR_BACKEND=mock for throughput numbers
	client := &http.Client{Timeout: 3 * time.Minute}

	for time.Since(start) < duration {
		form := url.Values{
			"document_type": {pickType()},
			"buyer_name":    {"Bench Buyer"},
			"seller_name":   {"Bench Seller"},
			"client_name":   {"Bench Client"},
			"clause_hoa":    {"on"},
		}

		resp, err := client.PostForm(targetURL+"/generate-document", form)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		atomic.AddUint64(&totalRequests, 1)
		switch {
		case resp.StatusCode == http.StatusOK:
			atomic.AddUint64(&success200, 1)
			var body struct {
				FinalFilename string `json:"final_filename"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
				recordFinal(body.FinalFilename)
			}
		case resp.StatusCode >= 500:
			atomic.AddUint64(&fail5xx, 1)
		case resp.StatusCode >= 400:
			atomic.AddUint64(&fail4xx, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()
	}
}

func pickType() string {
	if workload == "single" {
		return documentTypes[0]
	}
	return documentTypes[rand.Intn(len(documentTypes))]
}

// recordFinal counts filenames handed out more than once.
func recordFinal(name string) {
	seenMu.Lock()
	defer seenMu.Unlock()
	if _, dup := seenFinal[name]; dup {
		atomic.AddUint64(&collisions, 1)
		return
	}
	seenFinal[name] = struct{}{}
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	ok := atomic.LoadUint64(&success200)
	f4 := atomic.LoadUint64(&fail4xx)
	f5 := atomic.LoadUint64(&fail5xx)
	fErr := atomic.LoadUint64(&failOther)

	var errorRate float64
	if total > 0 {
		errorRate = float64(f4+f5) / float64(total) * 100
	}

	results := map[string]interface{}{
		"workload":         workload,
		"duration_sec":     d.Seconds(),
		"total_requests":   total,
		"throughput_rps":   float64(total) / d.Seconds(),
		"generated":        ok,
		"client_errors":    f4,
		"server_errors":    f5,
		"error_rate_pct":   errorRate,
		"transport_errors": fErr,
		"name_collisions":  atomic.LoadUint64(&collisions),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	name := outFile
	if name == "" {
		name = fmt.Sprintf("results_%s.json", workload)
	}
	file, err := os.Create(name)
	if err != nil {
		log.Printf("write results: %v", err)
		return
	}
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
