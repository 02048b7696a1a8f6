package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facewall/internal/camera"
	"github.com/kozaktomas/facewall/internal/chat"
	"github.com/kozaktomas/facewall/internal/config"
	"github.com/kozaktomas/facewall/internal/database"
	"github.com/kozaktomas/facewall/internal/database/postgres"
	"github.com/kozaktomas/facewall/internal/detector"
	"github.com/kozaktomas/facewall/internal/recognition"
	"github.com/kozaktomas/facewall/internal/web"
	"github.com/kozaktomas/facewall/internal/web/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Facewall web server.
The server ingests webcam frames, runs the recognition sampling loop,
manages the identity registry and serves the chat assistant.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("api-token", "", "Bearer token required for API access (defaults to WEB_API_TOKEN)")
}

// initIdentityHNSW builds or loads the identity HNSW index for fast similarity search.
func initIdentityHNSW(ctx context.Context, repo *postgres.IdentityRepository, indexPath string) {
	if indexPath != "" {
		fmt.Printf("Loading identity HNSW index from %s...\n", indexPath)
	} else {
		fmt.Printf("Building in-memory HNSW index for identity matching...\n")
	}
	if err := repo.EnableHNSW(ctx, indexPath); err != nil {
		fmt.Printf("Warning: Failed to build identity HNSW index: %v\n", err)
		fmt.Printf("Similarity search will use PostgreSQL queries (slower)\n")
	} else if indexPath != "" {
		fmt.Printf("Identity HNSW index ready with %d identities (persisted to %s)\n", repo.HNSWCount(), indexPath)
	} else {
		fmt.Printf("Identity HNSW index built with %d identities (in-memory only)\n", repo.HNSWCount())
	}
}

// buildChatProvider picks an LLM backend from the configured API keys.
// Returns nil when no key is configured (canned-only chat).
func buildChatProvider(ctx context.Context, cfg *config.Config) (chat.Provider, error) {
	if cfg.OpenAI.Token != "" {
		fmt.Println("Chat assistant: OpenAI")
		return chat.NewOpenAIProvider(cfg.OpenAI.Token, chat.RequestPricing{Input: 0.40, Output: 1.60}), nil
	}
	if cfg.Gemini.APIKey != "" {
		fmt.Println("Chat assistant: Gemini")
		return chat.NewGeminiProvider(ctx, cfg.Gemini.APIKey, chat.RequestPricing{Input: 0.30, Output: 2.50})
	}
	fmt.Println("Chat assistant: canned answers only (no API key configured)")
	return nil, nil
}

// resolveServeHostPort resolves port, host and API token from flags and
// environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	apiToken := mustGetString(cmd, "api-token")

	if apiToken == "" {
		apiToken = os.Getenv("WEB_API_TOKEN")
	}
	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host, apiToken
}

// saveHNSWIndex saves the identity HNSW index to disk during shutdown.
func saveHNSWIndex() {
	if rebuilder := database.GetIdentityHNSWRebuilder(); rebuilder != nil {
		if err := rebuilder.SaveHNSWIndex(); err != nil {
			fmt.Printf("Warning: failed to save identity HNSW index: %v\n", err)
		} else {
			fmt.Println("Identity HNSW index saved to disk")
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	if err := postgres.Initialize(&cfg.Database, cfg.Detector.Dim); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	pool := postgres.GetGlobalPool()
	repo := postgres.NewIdentityRepository(pool)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initIdentityHNSW(ctx, repo, cfg.Database.HNSWIndexPath)

	database.RegisterPostgresBackend(
		func() database.IdentityReader { return repo },
		func() database.IdentityWriter { return repo },
	)
	database.RegisterIdentityHNSWRebuilder(repo)
	fmt.Printf("Using PostgreSQL backend\n")

	buffer := camera.NewBuffer(cfg.Recognition.FrameMaxAge)
	det := detector.NewClient(cfg.Detector.URL)

	snapshots := recognition.NewStoreSnapshotSource(repo)
	if err := snapshots.Refresh(ctx); err != nil {
		fmt.Printf("Warning: initial identity snapshot failed: %v\n", err)
	}
	go snapshots.Run(ctx, cfg.Recognition.SnapshotRefresh)

	stream := handlers.NewDetectionStream()
	controller, err := recognition.NewController(
		buffer, det, snapshots,
		cfg.Recognition.Interval, cfg.Recognition.Threshold,
		recognition.WithReportUnknown(cfg.Recognition.ReportUnknown),
		recognition.WithPublishCallback(stream.Publish),
	)
	if err != nil {
		return fmt.Errorf("failed to create recognition controller: %w", err)
	}

	provider, err := buildChatProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create chat provider: %w", err)
	}
	canned, err := chat.NewCannedResponder()
	if err != nil {
		return fmt.Errorf("failed to load canned chat patterns: %w", err)
	}
	chatService := chat.NewService(canned, provider, chat.NewStoreRoster(repo, controller.Detections))

	// Identity mutations must reach the matching loop promptly, not only
	// on the background refresh interval.
	onChange := func() {
		refreshCtx, refreshCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer refreshCancel()
		if err := snapshots.Refresh(refreshCtx); err != nil {
			fmt.Printf("Warning: identity snapshot refresh failed: %v\n", err)
		}
	}

	port, host, apiToken := resolveServeHostPort(cmd)

	server := web.NewServer(web.Deps{
		Store:      repo,
		Detector:   det,
		Controller: controller,
		Buffer:     buffer,
		Stream:     stream,
		Chat:       chatService,
		Dim:        cfg.Detector.Dim,
		OnChange:   onChange,
		APIToken:   apiToken,
	}, host, port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		controller.Stop()
		saveHNSWIndex()

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Facewall on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
