// Package main provides the unified swap-guard service:
// - HTTP API: intent creation, confirmation, inspection
// - Sweeper (scheduled): expired-intent retention
// - Observability: Prometheus metrics + health/status endpoints
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"solana-swap-guard/internal/domain"
	"solana-swap-guard/internal/intent"
	"solana-swap-guard/internal/jupiter"
	"solana-swap-guard/internal/observability"
	"solana-swap-guard/internal/policy"
	"solana-swap-guard/internal/rugcheck"
	"solana-swap-guard/internal/solana"
	"solana-swap-guard/internal/storage"
	chstore "solana-swap-guard/internal/storage/clickhouse"
	"solana-swap-guard/internal/storage/memory"
	"solana-swap-guard/internal/storage/migrations"
	pgstore "solana-swap-guard/internal/storage/postgres"
	"solana-swap-guard/internal/vault"
)

// Server holds all components of the unified service.
type Server struct {
	listenAddr    string
	sweepInterval time.Duration

	manager *intent.Manager
	vlt     *vault.Vault
	journal storage.ExecutionJournal
	logger  *log.Logger

	// State
	mu             sync.Mutex
	started        time.Time
	lastSweep      time.Time
	sweepRuns      int
	intentsCreated int
	intentsSwept   int64
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP API address")
	metricsAddr := flag.String("metrics-addr", envOr("METRICS_ADDR", ":9090"), "Prometheus metrics HTTP address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional execution journal)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint (submit directly instead of via aggregator)")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint for confirmations")
	jupiterKey := flag.String("jupiter-api-key", os.Getenv("JUPITER_API_KEY"), "Jupiter API key")
	vaultDir := flag.String("vault-dir", envOr("SWAPGUARD_DIR", vault.DefaultDir()), "Wallet vault directory")
	sweepInterval := flag.Duration("sweep-interval", 30*time.Second, "Expired-intent sweep interval")
	intentTTL := flag.Duration("intent-ttl", domain.DefaultIntentTTL, "Intent confirmation window")
	confirmTimeout := flag.Duration("confirm-timeout", solana.DefaultConfirmTimeout, "On-chain confirmation timeout (direct RPC mode)")
	verbose := flag.Bool("verbose", false, "Verbose intent logging")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[swapguard] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Open the vault; the service refuses to start without a signing wallet.
	vlt := vault.New(*vaultDir)
	wallet, err := vlt.ActiveWallet()
	if err != nil {
		logger.Fatalf("No usable wallet in %s: %v (run `walletctl create` or `walletctl import-key`)", *vaultDir, err)
	}
	logger.Printf("Signing wallet: %s", wallet.Address)

	// Encrypted user config can carry the API key and endpoints; flags win.
	userCfg, err := vlt.LoadConfig()
	if err != nil {
		logger.Fatalf("Failed to load vault config: %v", err)
	}
	apiKey := firstNonEmpty(*jupiterKey, userCfg.JupiterAPIKey)
	rpcURL := firstNonEmpty(*rpcEndpoint, userCfg.RPCURL)
	wsURL := firstNonEmpty(*wsEndpoint, userCfg.WSURL)

	// Create stores
	store, journal, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	metrics := observability.NewMetrics("swap_guard")

	// Upstream clients
	ultra := jupiter.NewUltraClient(jupiter.WithAPIKey(apiKey))
	prices := jupiter.NewPriceClient(jupiter.WithAPIKey(apiKey))
	risk := rugcheck.New()

	// The aggregator executes orders by default. A configured RPC endpoint
	// switches submission to direct broadcast with local confirmation.
	var submitter intent.ChainSubmitter = ultra
	if rpcURL != "" {
		opts := []solana.SubmitterOption{
			solana.WithConfirmTimeout(*confirmTimeout),
			solana.WithSubmitterLogger(log.New(os.Stdout, "[solana] ", log.LstdFlags)),
		}
		if wsURL != "" {
			opts = append(opts, solana.WithWSConfirmer(solana.NewWSConfirmer(wsURL, *confirmTimeout)))
		}
		submitter = solana.NewRPCSubmitter(solana.NewHTTPClient(rpcURL), opts...)
		logger.Printf("Submitting via RPC endpoint %s", rpcURL)
	}

	manager, err := intent.New(intent.Options{
		Store:     store,
		Quotes:    ultra,
		Submitter: submitter,
		Signer:    &intent.VaultSigner{Vault: vlt},
		Wallet:    wallet.Address,
		Policy:    policy.ConfigFromEnv(),
		Risk:      risk,
		Prices:    prices,
		Journal:   journal,
		Metrics:   metrics,
		TTL:       *intentTTL,
		Logger:    log.New(os.Stdout, "[intent] ", log.LstdFlags),
		Verbose:   *verbose,
	})
	if err != nil {
		logger.Fatalf("Failed to create intent manager: %v", err)
	}

	server := &Server{
		listenAddr:    *listenAddr,
		sweepInterval: *sweepInterval,
		manager:       manager,
		vlt:           vlt,
		journal:       journal,
		logger:        logger,
		started:       time.Now(),
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Start metrics server
	go server.startMetricsServer(*metricsAddr)

	// Run the unified server
	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// Run starts the API server and the sweep loop, blocking until the context
// is cancelled or a component fails.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting swap-guard service...")

	errCh := make(chan error, 2)

	go func() {
		err := s.runAPI(ctx)
		if err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	go func() {
		err := s.runSweeper(ctx)
		if err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("sweeper: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// runAPI serves the intent API until the context is cancelled.
func (s *Server) runAPI(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/intents", s.handleCreateIntent)
	mux.HandleFunc("POST /v1/intents/{id}/confirm", s.handleConfirmIntent)
	mux.HandleFunc("GET /v1/intents/{id}", s.handleGetIntent)
	mux.HandleFunc("GET /v1/intents", s.handleListPending)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /status", s.handleStatus)

	srv := &http.Server{Addr: s.listenAddr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Printf("Starting API server on %s", s.listenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}

// runSweeper deletes expired unexecuted intents on a fixed interval.
func (s *Server) runSweeper(ctx context.Context) error {
	s.logger.Printf("Starting sweeper (interval: %v)...", s.sweepInterval)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			swept, err := s.manager.SweepExpired(ctx)
			if err != nil {
				s.logger.Printf("Sweep error: %v", err)
				continue
			}
			s.mu.Lock()
			s.lastSweep = time.Now()
			s.sweepRuns++
			s.intentsSwept += swept
			s.mu.Unlock()
			if swept > 0 {
				s.logger.Printf("Swept %d expired intents", swept)
			}
		}
	}
}

// startMetricsServer starts the HTTP server for health and metrics.
func (s *Server) startMetricsServer(addr string) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", observability.Handler())

	s.logger.Printf("Starting metrics server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Printf("Metrics server error: %v", err)
	}
}

// CreateIntentRequest is the JSON body for POST /v1/intents.
type CreateIntentRequest struct {
	FromMint    string `json:"from_mint"`
	ToMint      string `json:"to_mint"`
	Amount      string `json:"amount"`
	SlippageBps int    `json:"slippage_bps"`
}

// IntentResponse is the JSON view of a swap intent.
type IntentResponse struct {
	IntentID      string          `json:"intent_id"`
	FromMint      string          `json:"from_mint"`
	ToMint        string          `json:"to_mint"`
	Amount        string          `json:"amount"`
	SlippageBps   int             `json:"slippage_bps"`
	OutAmountEst  string          `json:"out_amount_est"`
	CreatedAt     time.Time       `json:"created_at"`
	ExpiresAt     time.Time       `json:"expires_at"`
	TimeRemaining int             `json:"time_remaining_s"`
	Executed      bool            `json:"executed"`
	Result        *ResultResponse `json:"result,omitempty"`
}

// ResultResponse is the JSON view of an execution outcome.
type ResultResponse struct {
	Signature     string    `json:"signature,omitempty"`
	Landed        bool      `json:"landed"`
	ActualOut     string    `json:"actual_out,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CompletedAt   time.Time `json:"completed_at"`
}

// ErrorResponse is the JSON error body. ChecksFailed is populated only for
// policy denials so callers see the full itemized verdict.
type ErrorResponse struct {
	Error        string   `json:"error"`
	ChecksPassed []string `json:"checks_passed,omitempty"`
	ChecksFailed []string `json:"checks_failed,omitempty"`
}

func intentView(in *domain.SwapIntent, now time.Time) IntentResponse {
	resp := IntentResponse{
		IntentID:      in.IntentID,
		FromMint:      in.FromMint,
		ToMint:        in.ToMint,
		Amount:        in.Amount,
		SlippageBps:   in.SlippageBps,
		OutAmountEst:  in.OutAmountEst,
		CreatedAt:     in.CreatedAt,
		ExpiresAt:     in.ExpiresAt,
		TimeRemaining: in.TimeRemaining(now),
		Executed:      in.Executed,
	}
	if in.Result != nil {
		resp.Result = resultView(in.Result)
	}
	return resp
}

func resultView(r *domain.ExecutionResult) *ResultResponse {
	return &ResultResponse{
		Signature:     r.Signature,
		Landed:        r.Landed,
		ActualOut:     r.ActualOut,
		FailureReason: r.FailureReason,
		CompletedAt:   r.CompletedAt,
	}
}

func (s *Server) handleCreateIntent(w http.ResponseWriter, r *http.Request) {
	var req CreateIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "malformed request body"})
		return
	}

	in, err := s.manager.CreateIntent(r.Context(), req.FromMint, req.ToMint, req.Amount, req.SlippageBps)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	s.intentsCreated++
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, intentView(in, time.Now().UTC()))
}

func (s *Server) handleConfirmIntent(w http.ResponseWriter, r *http.Request) {
	result, err := s.manager.ConfirmIntent(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultView(result))
}

func (s *Server) handleGetIntent(w http.ResponseWriter, r *http.Request) {
	in, err := s.manager.GetIntent(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, intentView(in, time.Now().UTC()))
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := s.manager.ListPending(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	now := time.Now().UTC()
	views := make([]IntentResponse, 0, len(pending))
	for _, in := range pending {
		views = append(views, intentView(in, now))
	}
	writeJSON(w, http.StatusOK, views)
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status         string    `json:"status"`
	Uptime         string    `json:"uptime"`
	WalletAddress  string    `json:"wallet_address"`
	IntentsCreated int       `json:"intents_created"`
	IntentsSwept   int64     `json:"intents_swept"`
	SweepRuns      int       `json:"sweep_runs"`
	LastSweep      time.Time `json:"last_sweep,omitempty"`
	RecentFailures []string  `json:"recent_failures,omitempty"`
}

// statusRecentFailures caps how many journaled failures /status reports.
const statusRecentFailures = 5

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	wallet, _ := s.vlt.ActiveWallet()
	address := ""
	if wallet != nil {
		address = wallet.Address
	}

	s.mu.Lock()
	resp := StatusResponse{
		Status:         "running",
		Uptime:         time.Since(s.started).String(),
		WalletAddress:  address,
		IntentsCreated: s.intentsCreated,
		IntentsSwept:   s.intentsSwept,
		SweepRuns:      s.sweepRuns,
		LastSweep:      s.lastSweep,
	}
	s.mu.Unlock()

	if s.journal != nil {
		failures, err := s.journal.RecentFailures(r.Context(), statusRecentFailures)
		if err != nil {
			s.logger.Printf("Recent failures lookup error: %v", err)
		} else {
			resp.RecentFailures = failures
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeError maps manager errors onto HTTP statuses. A blocked intent is a
// 403 with the itemized policy verdict; claim failures each get a distinct
// status so callers can tell expiry from replay.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var blocked *intent.PolicyBlockedError
	if errors.As(err, &blocked) {
		writeJSON(w, http.StatusForbidden, ErrorResponse{
			Error:        blocked.Result.Reason,
			ChecksPassed: blocked.Result.ChecksPassed,
			ChecksFailed: blocked.Result.ChecksFailed,
		})
		return
	}

	switch {
	case errors.Is(err, intent.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "intent not found"})
	case errors.Is(err, storage.ErrIntentAlreadyExecuted):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "intent already executed"})
	case errors.Is(err, storage.ErrIntentExpired):
		writeJSON(w, http.StatusGone, ErrorResponse{Error: "intent expired"})
	default:
		s.logger.Printf("Request error: %v", err)
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// createStores creates the intent store and optional execution journal.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool, logger *log.Logger) (storage.IntentStore, storage.ExecutionJournal, func(), error) {
	if useMemory {
		logger.Println("Using in-memory storage")
		return memory.NewIntentStore(), nil, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	if clickhouseDSN == "" {
		return pgstore.NewIntentStore(pool), nil, func() { pool.Close() }, nil
	}

	chConn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	if err := migrations.RunClickhouseMigrations(ctx, chConn); err != nil {
		chConn.Close()
		pool.Close()
		return nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return pgstore.NewIntentStore(pool), chstore.NewExecutionJournal(chConn), cleanup, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
