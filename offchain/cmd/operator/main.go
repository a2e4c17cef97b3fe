package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cosmossdk.io/math"

	"github.com/openalpha/fundvault/offchain/operator"
	"github.com/openalpha/fundvault/pkg/grpcclient"
	"github.com/openalpha/fundvault/x/vault/types"
)

// Config holds the application configuration
type Config struct {
	BatchSize        int           `json:"batch_size"`
	BatchInterval    time.Duration `json:"batch_interval"`
	PollInterval     time.Duration `json:"poll_interval"`
	FeeCheckInterval time.Duration `json:"fee_check_interval"`
	WebSocketURL     string        `json:"websocket_url"`
	ChainRPCURL      string        `json:"chain_rpc_url"`
	GRPCAddr         string        `json:"grpc_addr"`
	ChainID          string        `json:"chain_id"`
	SubmitterType    string        `json:"submitter_type"` // "mock" or "grpc"
	Demo             bool          `json:"demo"`           // run demo mode
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		BatchSize:        50,
		BatchInterval:    2 * time.Second,
		PollInterval:     1 * time.Second,
		FeeCheckInterval: 1 * time.Minute,
		WebSocketURL:     "ws://localhost:26657/websocket",
		ChainRPCURL:      "http://localhost:26657",
		GRPCAddr:         "localhost:9090",
		ChainID:          "fundvault-1",
		SubmitterType:    "mock",
		Demo:             false,
	}
}

// LoadConfig loads configuration from a file
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	batchSize := flag.Int("batch-size", 0, "Maximum approvals per batch")
	batchInterval := flag.Duration("batch-interval", 0, "Time interval for batch submission")
	pollInterval := flag.Duration("poll-interval", 0, "Time interval for maturity scans")
	rpcURL := flag.String("rpc", "", "Chain RPC URL")
	wsURL := flag.String("ws", "", "WebSocket URL")
	grpcAddr := flag.String("grpc", "", "Chain gRPC address")
	chainID := flag.String("chain-id", "", "Chain ID")
	submitterType := flag.String("submitter", "", "Submitter type (mock or grpc)")
	privKeyHex := flag.String("privkey", "", "Manager private key hex (grpc submitter)")
	demo := flag.Bool("demo", false, "Run demo mode with sample requests")
	flag.Parse()

	// Load configuration
	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Override with command line flags
	if *batchSize > 0 {
		config.BatchSize = *batchSize
	}
	if *batchInterval > 0 {
		config.BatchInterval = *batchInterval
	}
	if *pollInterval > 0 {
		config.PollInterval = *pollInterval
	}
	if *rpcURL != "" {
		config.ChainRPCURL = *rpcURL
	}
	if *wsURL != "" {
		config.WebSocketURL = *wsURL
	}
	if *grpcAddr != "" {
		config.GRPCAddr = *grpcAddr
	}
	if *chainID != "" {
		config.ChainID = *chainID
	}
	if *submitterType != "" {
		config.SubmitterType = *submitterType
	}
	if *demo {
		config.Demo = true
	}

	// Print configuration
	log.Println("=== FundVault Approval Operator ===")
	log.Printf("Batch Size: %d", config.BatchSize)
	log.Printf("Batch Interval: %v", config.BatchInterval)
	log.Printf("Poll Interval: %v", config.PollInterval)
	log.Printf("Chain RPC: %s", config.ChainRPCURL)
	log.Printf("Chain gRPC: %s", config.GRPCAddr)
	log.Printf("Submitter: %s", config.SubmitterType)
	log.Println("===================================")

	// Create the signing client when the grpc submitter is requested
	var client *grpcclient.Client
	if config.SubmitterType == "grpc" {
		if *privKeyHex == "" {
			log.Fatal("grpc submitter requires -privkey")
		}
		clientConfig := grpcclient.DefaultConfig()
		clientConfig.GRPCAddr = config.GRPCAddr
		clientConfig.ChainID = config.ChainID
		clientConfig.BatchSize = config.BatchSize
		client, err = grpcclient.NewClient(clientConfig, *privKeyHex)
		if err != nil {
			log.Fatalf("Failed to create gRPC client: %v", err)
		}
		defer client.Close()
		log.Printf("Approver address: %s", client.Address())
	}

	// Create submitter
	factory := operator.NewSubmitterFactory()
	submitter := factory.Create(config.SubmitterType, &operator.GRPCSubmitterConfig{
		Client:        client,
		BatchSize:     config.BatchSize,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	})

	// Create operator
	operatorConfig := &operator.Config{
		BatchSize:        config.BatchSize,
		BatchInterval:    config.BatchInterval,
		PollInterval:     config.PollInterval,
		FeeCheckInterval: config.FeeCheckInterval,
		WebSocketURL:     config.WebSocketURL,
		ChainRPCURL:      config.ChainRPCURL,
	}
	op := operator.NewApprovalOperator(operatorConfig, submitter)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the operator
	if err := op.Start(ctx); err != nil {
		log.Fatalf("Failed to start operator: %v", err)
	}

	// Run demo if requested
	if config.Demo {
		go runDemo(op, submitter)
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Periodic stats logging
	statsTicker := time.NewTicker(10 * time.Second)
	defer statsTicker.Stop()

	log.Println("Operator is running. Press Ctrl+C to stop.")

	for {
		select {
		case sig := <-sigCh:
			log.Printf("Received signal: %v", sig)
			cancel()
			if err := op.Stop(); err != nil {
				log.Printf("Error stopping operator: %v", err)
			}
			log.Println("Operator stopped")
			return
		case <-statsTicker.C:
			stats := op.GetStats()
			log.Printf("Stats: Tracked=%d, Pending=%d, Scheduled=%d, Buffered=%d",
				stats.TrackedRequests, stats.PendingRequests, stats.ScheduledCount, stats.BufferedApprovals)
		}
	}
}

// runDemo runs a demonstration with sample withdrawal requests
func runDemo(op *operator.ApprovalOperator, submitter operator.ApprovalSubmitter) {
	log.Println("Starting demo mode...")
	time.Sleep(time.Second)

	// A short delay so the demo matures requests within seconds
	op.UpdateVaultParams(&operator.VaultParams{
		WithdrawalDelay: 2,
		SharePrice:      "1000000",
	})
	time.Sleep(100 * time.Millisecond)

	now := time.Now().Unix()

	// One request past its delay already, two that mature shortly
	requests := []*types.WithdrawalRequest{
		{
			ID:               1,
			Requester:        "cosmos1demo-alice",
			ShareAmount:      math.NewIntWithDecimal(5, 18),
			SettlementAmount: math.NewInt(5000000),
			CreatedAt:        now - 10,
		},
		{
			ID:               2,
			Requester:        "cosmos1demo-bob",
			ShareAmount:      math.NewIntWithDecimal(2, 18),
			SettlementAmount: math.NewInt(2000000),
			CreatedAt:        now,
		},
		{
			ID:               3,
			Requester:        "cosmos1demo-carol",
			ShareAmount:      math.NewIntWithDecimal(1, 18),
			SettlementAmount: math.NewInt(1000000),
			CreatedAt:        now,
		},
	}

	for _, request := range requests {
		log.Printf("Submitting request %d: %s shares from %s",
			request.ID, request.ShareAmount.String(), request.Requester)
		op.SubmitRequest(request)
		time.Sleep(100 * time.Millisecond)
	}

	time.Sleep(500 * time.Millisecond)
	printQueue(op)

	// Cancel one request before it matures
	log.Println("\n=== Cancelling Request 3 ===")
	op.CancelRequest(3)
	time.Sleep(500 * time.Millisecond)
	printQueue(op)

	// Wait for the remaining requests to mature and flush
	log.Println("\n=== Waiting for maturity ===")
	time.Sleep(5 * time.Second)
	printQueue(op)

	if mock, ok := submitter.(*operator.MockSubmitter); ok {
		log.Printf("Submitted approvals: %v", mock.GetSubmittedApprovals())
	}
	status := submitter.GetStatus()
	log.Printf("Submitter: total=%d failed=%d", status.TotalSubmissions, status.FailedSubmissions)

	log.Println("\nDemo completed!")
}

// printQueue prints the operator's current request queue
func printQueue(op *operator.ApprovalOperator) {
	stats := op.GetStats()
	log.Printf("Queue: Tracked=%d, Pending=%d, Scheduled=%d, Buffered=%d",
		stats.TrackedRequests, stats.PendingRequests, stats.ScheduledCount, stats.BufferedApprovals)

	pending := op.PendingRequests()
	if len(pending) == 0 {
		log.Println("  (no pending requests)")
		return
	}
	for _, request := range pending {
		log.Printf("  request %d: %s shares, created %d",
			request.ID, request.ShareAmount.String(), request.CreatedAt)
	}
	if maturity, ok := op.NextMaturity(); ok {
		log.Printf("  next maturity: %d (in %ds)", maturity, maturity-time.Now().Unix())
	}
}
