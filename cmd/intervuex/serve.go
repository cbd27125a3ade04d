package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/techieRahul17/intervuex/internal/cache"
	"github.com/techieRahul17/intervuex/internal/config"
	"github.com/techieRahul17/intervuex/internal/db"
	"github.com/techieRahul17/intervuex/internal/evaluator"
	"github.com/techieRahul17/intervuex/internal/llm"
	"github.com/techieRahul17/intervuex/internal/meeting"
	"github.com/techieRahul17/intervuex/internal/metrics"
	"github.com/techieRahul17/intervuex/internal/server"
	"github.com/techieRahul17/intervuex/internal/session"
	"github.com/techieRahul17/intervuex/internal/speech"
	"github.com/techieRahul17/intervuex/internal/stream"
	"github.com/techieRahul17/intervuex/internal/transcript"
	"github.com/techieRahul17/intervuex/internal/types"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes the InterVueX REST endpoints.

PostgreSQL, Redis, Gemini, Deepgram, the hosted meeting tenant and the sentiment
stream are each optional: a missing setting selects the in-memory fallback or
turns the matching endpoint off.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address, overriding server.addr")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := appConfig
	log := appLogger
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jwtCfg, err := cfg.JWT()
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	m := metrics.New()

	questions, closeQuestions, err := newQuestionGenerator(ctx, cfg, m, log)
	if err != nil {
		return err
	}
	defer closeQuestions()

	transcripts := transcript.NewLog(store, log.Named("transcript"))
	sessions := session.NewRegistry(jwtCfg.Expiration())

	deps := server.Deps{
		Store:       store,
		Evaluator:   newEvaluator(cfg),
		Sessions:    sessions,
		JWT:         server.NewJWTService(jwtCfg),
		Questions:   questions,
		Transcripts: transcripts,
		Metrics:     m,
		Logger:      log,
	}

	if cfg.Speech.APIKey != "" {
		deps.Speech = speech.NewClient(cfg.Speech.APIKey,
			speech.WithEndpoint(cfg.Speech.Endpoint),
			speech.WithModel(cfg.Speech.Model),
		)
	} else {
		log.Info("transcription disabled: no speech API key")
	}

	if cfg.Meeting.AppID != "" && cfg.Meeting.PrivateKey != "" {
		signer, err := newMeetingSigner(cfg)
		if err != nil {
			return err
		}
		deps.Meeting = signer
	} else {
		log.Info("video meeting disabled: no app id or private key")
	}

	var poller *stream.Poller
	if cfg.Stream.URL != "" {
		poller = stream.NewPoller(cfg.Stream.URL, cfg.Stream.Interval, log.Named("stream"))
		poller.OnFailure = func(error) { m.RecordPollFailure() }
		poller.OnReading = func(r types.ConfidenceReading) { m.SetConfidence(r.Confidence) }
		deps.Confidence = poller
	}

	srv, err := server.New(cfg.Server, deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(gctx); err != nil {
			return err
		}
		// A clean return means shutdown; stop the other workers too.
		stop()
		return nil
	})
	g.Go(func() error {
		transcripts.Run(gctx, cfg.Database.TranscriptFlushInterval)
		return nil
	})
	g.Go(func() error {
		sessions.Run(gctx, cfg.Auth.CleanupInterval)
		return nil
	})
	if poller != nil {
		g.Go(func() error {
			poller.Run(gctx)
			return nil
		})
	}
	return g.Wait()
}

// openStore connects to PostgreSQL when a URL is configured and applies the schema.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (db.Store, error) {
	if cfg.Database.URL == "" {
		log.Info("using in-memory store")
		return db.NewMemory(), nil
	}
	database, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("using PostgreSQL store")
	return database, nil
}

// newQuestionGenerator wires the model client and the question cache. Without an API key
// every request is answered from the default bank.
func newQuestionGenerator(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log *zap.Logger) (*llm.QuestionGenerator, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var c cache.Cache = cache.NewMemory()
	if cfg.Redis.Addr != "" {
		client := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := cache.Ping(ctx, client); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		redisCache := cache.NewRedis(client, "intervuex:questions:")
		closers = append(closers, func() { _ = redisCache.Close() })
		c = redisCache
	}

	var client llm.Client
	if cfg.LLM.APIKey != "" {
		llmCfg := llm.DefaultConfig().WithModel(llm.TierLite, cfg.LLM.Model)
		gemini, err := llm.NewClient(ctx, llmCfg, cfg.LLM.APIKey)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		closers = append(closers, func() { _ = gemini.Close() })
		client = gemini
	} else {
		log.Info("question generation uses the default bank: no LLM API key")
	}

	gen := llm.NewQuestionGenerator(client, c, nil, llm.GeneratorOptions{
		Count:    cfg.LLM.QuestionCount,
		CacheTTL: cfg.Redis.TTL,
		Tier:     llm.TierLite,
		OnFallback: func(error) {
			m.RecordQuestionFallback()
		},
	}, log.Named("questions"))
	return gen, closeAll, nil
}

func newEvaluator(cfg *config.Config) *evaluator.Evaluator {
	return evaluator.New(evaluator.Options{
		Concurrency:      cfg.Evaluator.Concurrency,
		ExecutionTimeout: cfg.Evaluator.ExecutionTimeout,
		Latency:          evaluator.Latency{Min: cfg.Evaluator.LatencyMin, Max: cfg.Evaluator.LatencyMax},
	})
}

func newMeetingSigner(cfg *config.Config) (*meeting.Signer, error) {
	signer, err := meeting.NewSigner(meeting.Config{
		Domain:     cfg.Meeting.Domain,
		AppID:      cfg.Meeting.AppID,
		KeyID:      cfg.Meeting.KeyID,
		Room:       cfg.Meeting.Room,
		PrivateKey: cfg.Meeting.PrivateKey,
		TokenTTL:   cfg.Meeting.TokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create meeting signer: %w", err)
	}
	return signer, nil
}
