package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DepositRequest represents the request to deposit into the vault
type DepositRequest struct {
	User   string `json:"user"`
	Amount string `json:"amount"`
}

// DepositResponse represents the deposit response
type DepositResponse struct {
	User       string `json:"user"`
	Amount     string `json:"amount"`
	Shares     string `json:"shares"`
	SharePrice string `json:"share_price"`
}

// WithdrawalRequestBody represents the request to queue a withdrawal
type WithdrawalRequestBody struct {
	User        string `json:"user"`
	ShareAmount string `json:"share_amount"`
}

// WithdrawalResponse represents the withdrawal request response
type WithdrawalResponse struct {
	RequestID        uint64 `json:"request_id"`
	SettlementAmount string `json:"settlement_amount"`
}

// BenchmarkResults holds all test results
type BenchmarkResults struct {
	Deposits         int64
	Requests         int64
	DepositSuccess   int64
	RequestSuccess   int64
	DepositFailed    int64
	RequestFailed    int64
	RequestsQueued   int64
	DepositLatencies []time.Duration
	RequestLatencies []time.Duration
	mu               sync.Mutex
}

func (r *BenchmarkResults) AddDeposit(latency time.Duration, success bool) {
	atomic.AddInt64(&r.Deposits, 1)
	if success {
		atomic.AddInt64(&r.DepositSuccess, 1)
	} else {
		atomic.AddInt64(&r.DepositFailed, 1)
	}
	r.mu.Lock()
	r.DepositLatencies = append(r.DepositLatencies, latency)
	r.mu.Unlock()
}

func (r *BenchmarkResults) AddRequest(latency time.Duration, success bool, queued bool) {
	atomic.AddInt64(&r.Requests, 1)
	if success {
		atomic.AddInt64(&r.RequestSuccess, 1)
	} else {
		atomic.AddInt64(&r.RequestFailed, 1)
	}
	if queued {
		atomic.AddInt64(&r.RequestsQueued, 1)
	}
	r.mu.Lock()
	r.RequestLatencies = append(r.RequestLatencies, latency)
	r.mu.Unlock()
}

func percentile(latencies []time.Duration, p float64) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func avg(latencies []time.Duration) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, l := range latencies {
		total += l
	}
	return total / time.Duration(len(latencies))
}

func minLatency(latencies []time.Duration) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	m := latencies[0]
	for _, l := range latencies {
		if l < m {
			m = l
		}
	}
	return m
}

func maxLatency(latencies []time.Duration) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	m := latencies[0]
	for _, l := range latencies {
		if l > m {
			m = l
		}
	}
	return m
}

func deposit(client *http.Client, baseURL string, req *DepositRequest) (time.Duration, bool, string) {
	body, _ := json.Marshal(req)
	start := time.Now()

	httpReq, err := http.NewRequest("POST", baseURL+"/v1/vault/deposit", bytes.NewReader(body))
	if err != nil {
		return time.Since(start), false, ""
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	latency := time.Since(start)

	if err != nil {
		return latency, false, ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return latency, false, ""
	}

	var depositResp DepositResponse
	if err := json.NewDecoder(resp.Body).Decode(&depositResp); err != nil {
		return latency, true, ""
	}
	return latency, true, depositResp.Shares
}

func requestWithdrawal(client *http.Client, baseURL string, req *WithdrawalRequestBody) (time.Duration, bool, bool) {
	body, _ := json.Marshal(req)
	start := time.Now()

	httpReq, err := http.NewRequest("POST", baseURL+"/v1/vault/withdrawals/request", bytes.NewReader(body))
	if err != nil {
		return time.Since(start), false, false
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	latency := time.Since(start)

	if err != nil {
		return latency, false, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return latency, false, false
	}

	var withdrawalResp WithdrawalResponse
	if err := json.NewDecoder(resp.Body).Decode(&withdrawalResp); err != nil {
		return latency, true, false
	}
	return latency, true, true
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "API base URL")
	userCount := flag.Int("n", 10000, "Number of depositors (each deposits then requests a withdrawal)")
	concurrency := flag.Int("c", 100, "Concurrency level")
	amount := flag.String("amount", "5000000", "Deposit amount in settlement units")
	withdrawShare := flag.Int("withdraw-pct", 50, "Percent of minted shares to queue for withdrawal")
	outputFile := flag.String("o", "", "Output JSON report file")
	flag.Parse()

	fmt.Println("╔══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║      FundVault Benchmark - Deposit/Withdrawal Stress Test        ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Configuration:\n")
	fmt.Printf("  API URL:      %s\n", *baseURL)
	fmt.Printf("  Depositors:   %d\n", *userCount)
	fmt.Printf("  Concurrency:  %d\n", *concurrency)
	fmt.Printf("  Amount:       %s\n", *amount)
	fmt.Printf("  Withdraw:     %d%% of minted shares\n", *withdrawShare)
	fmt.Println()
	fmt.Println("Run the API with -mock -bench so admission is open and rate limits are off.")
	fmt.Println()

	// Check health
	fmt.Print("Checking API health... ")
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        1000,
			MaxIdleConnsPerHost: 200,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("FAILED: %v\n", err)
		os.Exit(1)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("FAILED: status %d\n", resp.StatusCode)
		os.Exit(1)
	}
	fmt.Println("OK")
	fmt.Println()

	results := &BenchmarkResults{
		DepositLatencies: make([]time.Duration, 0, *userCount),
		RequestLatencies: make([]time.Duration, 0, *userCount),
	}

	// Semaphore for concurrency control
	sem := make(chan struct{}, *concurrency)
	var wg sync.WaitGroup

	// Progress tracking
	var processed int64
	total := int64(*userCount)
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := atomic.LoadInt64(&processed)
				pct := float64(p) / float64(total) * 100
				fmt.Printf("\r  Progress: %d/%d (%.1f%%) | Queued: %d    ",
					p, total, pct,
					atomic.LoadInt64(&results.RequestsQueued))
			}
		}
	}()

	fmt.Println("Starting benchmark...")
	startTime := time.Now()

	for i := 0; i < *userCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			user := fmt.Sprintf("bench_depositor_%d", idx)

			latency, success, shares := deposit(client, *baseURL, &DepositRequest{
				User:   user,
				Amount: *amount,
			})
			results.AddDeposit(latency, success)

			// A depositor without shares has nothing to withdraw
			if success && shares != "" && *withdrawShare > 0 {
				shareAmount := scaleShares(shares, *withdrawShare)
				latency, success, queued := requestWithdrawal(client, *baseURL, &WithdrawalRequestBody{
					User:        user,
					ShareAmount: shareAmount,
				})
				results.AddRequest(latency, success, queued)
			}

			atomic.AddInt64(&processed, 1)
		}(i)
	}

	wg.Wait()
	close(done)
	elapsed := time.Since(startTime)

	fmt.Printf("\r                                                                              \r")
	fmt.Println()
	fmt.Println()

	// Calculate statistics
	allLatencies := append(results.DepositLatencies, results.RequestLatencies...)
	totalOps := results.Deposits + results.Requests
	totalSuccess := results.DepositSuccess + results.RequestSuccess
	totalFailed := results.DepositFailed + results.RequestFailed
	successRate := float64(totalSuccess) / float64(totalOps) * 100
	throughput := float64(totalOps) / elapsed.Seconds()

	// Print results
	fmt.Println("╔══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                       BENCHMARK RESULTS                          ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════════╝")
	fmt.Println()

	fmt.Printf("Test Duration:        %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Throughput:           %.2f ops/sec\n", throughput)
	fmt.Println()

	fmt.Println("── Operation Statistics ───────────────────────────────────────────")
	fmt.Printf("  Total Operations:   %d\n", totalOps)
	fmt.Printf("  Deposits:           %d (success: %d, failed: %d)\n", results.Deposits, results.DepositSuccess, results.DepositFailed)
	fmt.Printf("  Withdrawal Reqs:    %d (success: %d, failed: %d)\n", results.Requests, results.RequestSuccess, results.RequestFailed)
	fmt.Printf("  Requests Queued:    %d\n", results.RequestsQueued)
	fmt.Printf("  Success Rate:       %.2f%%\n", successRate)
	fmt.Println()

	fmt.Println("── Overall Latency (all operations) ───────────────────────────────")
	fmt.Printf("  Min:                %v\n", minLatency(allLatencies))
	fmt.Printf("  Max:                %v\n", maxLatency(allLatencies))
	fmt.Printf("  Average:            %v\n", avg(allLatencies))
	fmt.Printf("  P50 (Median):       %v\n", percentile(allLatencies, 0.50))
	fmt.Printf("  P90:                %v\n", percentile(allLatencies, 0.90))
	fmt.Printf("  P95:                %v\n", percentile(allLatencies, 0.95))
	fmt.Printf("  P99:                %v\n", percentile(allLatencies, 0.99))
	fmt.Println()

	fmt.Println("── Deposit Latency ────────────────────────────────────────────────")
	fmt.Printf("  Min:                %v\n", minLatency(results.DepositLatencies))
	fmt.Printf("  Max:                %v\n", maxLatency(results.DepositLatencies))
	fmt.Printf("  Average:            %v\n", avg(results.DepositLatencies))
	fmt.Printf("  P99:                %v\n", percentile(results.DepositLatencies, 0.99))
	fmt.Println()

	fmt.Println("── Withdrawal Request Latency ─────────────────────────────────────")
	fmt.Printf("  Min:                %v\n", minLatency(results.RequestLatencies))
	fmt.Printf("  Max:                %v\n", maxLatency(results.RequestLatencies))
	fmt.Printf("  Average:            %v\n", avg(results.RequestLatencies))
	fmt.Printf("  P99:                %v\n", percentile(results.RequestLatencies, 0.99))
	fmt.Println()

	fmt.Println("── Assessment ─────────────────────────────────────────────────────")
	if successRate >= 99.9 {
		fmt.Println("  ✅ Success Rate:    Excellent (>99.9%)")
	} else if successRate >= 99 {
		fmt.Println("  ✅ Success Rate:    Good (>99%)")
	} else if successRate >= 95 {
		fmt.Println("  ⚠️  Success Rate:    Acceptable (>95%)")
	} else {
		fmt.Println("  ❌ Success Rate:    Poor (<95%)")
	}

	avgLat := avg(allLatencies)
	if avgLat < 1*time.Millisecond {
		fmt.Println("  ✅ Latency:         Excellent (<1ms avg)")
	} else if avgLat < 10*time.Millisecond {
		fmt.Println("  ✅ Latency:         Good (<10ms avg)")
	} else if avgLat < 100*time.Millisecond {
		fmt.Println("  ⚠️  Latency:         Acceptable (<100ms avg)")
	} else {
		fmt.Println("  ❌ Latency:         High (>100ms avg)")
	}

	if throughput > 10000 {
		fmt.Println("  ✅ Throughput:      Excellent (>10K/s)")
	} else if throughput > 1000 {
		fmt.Println("  ✅ Throughput:      Good (>1K/s)")
	} else if throughput > 100 {
		fmt.Println("  ⚠️  Throughput:      Acceptable (>100/s)")
	} else {
		fmt.Println("  ❌ Throughput:      Low (<100/s)")
	}

	fmt.Println()
	fmt.Println("══════════════════════════════════════════════════════════════════")

	// Save report if requested
	if *outputFile != "" {
		report := map[string]interface{}{
			"config": map[string]interface{}{
				"api_url":      *baseURL,
				"depositors":   *userCount,
				"concurrency":  *concurrency,
				"amount":       *amount,
				"withdraw_pct": *withdrawShare,
			},
			"summary": map[string]interface{}{
				"duration_ms":        elapsed.Milliseconds(),
				"throughput_per_sec": throughput,
				"total_operations":   totalOps,
				"success_operations": totalSuccess,
				"failed_operations":  totalFailed,
				"success_rate":       successRate,
				"requests_queued":    results.RequestsQueued,
			},
			"latency_all": map[string]interface{}{
				"min_us": minLatency(allLatencies).Microseconds(),
				"max_us": maxLatency(allLatencies).Microseconds(),
				"avg_us": avg(allLatencies).Microseconds(),
				"p50_us": percentile(allLatencies, 0.50).Microseconds(),
				"p90_us": percentile(allLatencies, 0.90).Microseconds(),
				"p95_us": percentile(allLatencies, 0.95).Microseconds(),
				"p99_us": percentile(allLatencies, 0.99).Microseconds(),
			},
			"latency_deposit": map[string]interface{}{
				"min_us": minLatency(results.DepositLatencies).Microseconds(),
				"max_us": maxLatency(results.DepositLatencies).Microseconds(),
				"avg_us": avg(results.DepositLatencies).Microseconds(),
				"p99_us": percentile(results.DepositLatencies, 0.99).Microseconds(),
			},
			"latency_request": map[string]interface{}{
				"min_us": minLatency(results.RequestLatencies).Microseconds(),
				"max_us": maxLatency(results.RequestLatencies).Microseconds(),
				"avg_us": avg(results.RequestLatencies).Microseconds(),
				"p99_us": percentile(results.RequestLatencies, 0.99).Microseconds(),
			},
			"timestamp": time.Now().Format(time.RFC3339),
		}

		file, err := os.Create(*outputFile)
		if err != nil {
			fmt.Printf("Failed to create report file: %v\n", err)
		} else {
			defer file.Close()
			encoder := json.NewEncoder(file)
			encoder.SetIndent("", "  ")
			encoder.Encode(report)
			fmt.Printf("\nReport saved to: %s\n", *outputFile)
		}
	}
}

// scaleShares trims a decimal share count to the requested percentage.
// Share amounts are 18-decimal integers in string form, so integer string
// math is enough: drop digits for powers of ten, halve digit-wise otherwise.
func scaleShares(shares string, pct int) string {
	if pct >= 100 || len(shares) == 0 {
		return shares
	}
	// 10% and 1% shorten the string; anything else falls back to half
	switch pct {
	case 10:
		if len(shares) > 1 {
			return shares[:len(shares)-1]
		}
		return "0"
	case 1:
		if len(shares) > 2 {
			return shares[:len(shares)-2]
		}
		return "0"
	default:
		return halveDecimalString(shares)
	}
}

// halveDecimalString divides a non-negative decimal integer string by two
func halveDecimalString(s string) string {
	result := make([]byte, 0, len(s))
	carry := 0
	for i := 0; i < len(s); i++ {
		digit := carry*10 + int(s[i]-'0')
		result = append(result, byte('0'+digit/2))
		carry = digit % 2
	}
	// Trim one leading zero at most; inputs have no leading zeros
	if len(result) > 1 && result[0] == '0' {
		result = result[1:]
	}
	return string(result)
}
