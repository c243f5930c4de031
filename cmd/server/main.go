package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/suPer8Hu/supportbot/internal/ai"
	"github.com/suPer8Hu/supportbot/internal/audit"
	"github.com/suPer8Hu/supportbot/internal/chat"
	"github.com/suPer8Hu/supportbot/internal/classifier"
	"github.com/suPer8Hu/supportbot/internal/config"
	"github.com/suPer8Hu/supportbot/internal/db"
	"github.com/suPer8Hu/supportbot/internal/events"
	"github.com/suPer8Hu/supportbot/internal/feedback"
	"github.com/suPer8Hu/supportbot/internal/httpapi"
	"github.com/suPer8Hu/supportbot/internal/httpapi/handlers"
	"github.com/suPer8Hu/supportbot/internal/logging"
	"github.com/suPer8Hu/supportbot/internal/maintenance"
	"github.com/suPer8Hu/supportbot/internal/session"
	"github.com/suPer8Hu/supportbot/internal/store/rabbitmq"
	"github.com/suPer8Hu/supportbot/internal/store/redisstore"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real env vars win
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// audit log (optional)
	clfOpts := []classifier.Option{classifier.WithLogger(logger)}
	var auditRepo *audit.Repo
	if cfg.DBDSN != "" {
		gdb, err := db.Connect(cfg.DBDSN)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		auditRepo = audit.NewRepo(gdb)
		if err := auditRepo.Migrate(); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
		clfOpts = append(clfOpts, classifier.WithPredictionLog(auditRepo))
	}

	// domain events (optional)
	var publisher events.Publisher = events.Nop{}
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			logger.Warn("rabbitmq unavailable, events disabled", zap.Error(err))
		} else {
			defer pub.Close()
			publisher = pub
		}
	}

	remote, err := newRemote(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("ai provider", zap.Error(err))
	}

	clf := classifier.New(cfg.ModelDir, clfOpts...)
	loaded, err := clf.Load()
	if err != nil {
		logger.Warn("load classifier failed, retraining", zap.Error(err))
	}

	corpus := classifier.NewCorpus(nil)
	found, err := corpus.Load(clf.CorpusPath())
	if err != nil {
		logger.Warn("load corpus failed, using seed data", zap.Error(err))
	}
	if !found || corpus.Len() == 0 {
		corpus.Replace(classifier.SeedExamples())
	}
	clf.SetCorpusLen(corpus.Len())

	if !loaded {
		if _, err := clf.Train(ctx, corpus.Snapshot()); err != nil {
			logger.Warn("initial training failed, local model unset", zap.Error(err))
		}
	}

	sessions := session.NewStore(cfg.SessionMaxMessages, cfg.SessionTimeout)
	ledger := feedback.NewLedger(corpus, clf, publisher, cfg.FeedbackRetrainThreshold, logger)

	sched := maintenance.New(sessions, ledger, cfg.MaintenanceInterval, logger)
	sched.Start(ctx)

	svc := chat.NewService(sessions, clf, remote, remote, logger)
	h := handlers.NewHandler(svc, ledger, sessions, clf, corpus.Len, logger)
	if auditRepo != nil {
		h.WithAudit(auditRepo)
	}
	r := httpapi.NewRouter(h, cfg.AdminJWTSecret, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server started", zap.String("addr", cfg.HTTPAddr), zap.String("provider", cfg.AIProvider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	sched.Wait()

	// keep corrections that arrived after the last retrain
	if err := corpus.Save(clf.CorpusPath()); err != nil {
		logger.Warn("save corpus failed", zap.Error(err))
	}
}

func newRemote(ctx context.Context, cfg config.Config, logger *zap.Logger) (*ai.Remote, error) {
	reg := ai.NewRegistry()
	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, m), nil
	})
	reg.Register("openrouter", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		if cfg.OpenRouterAPIKey == "" {
			return nil, errors.New("OPENROUTER_API_KEY is required")
		}
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OpenRouterModel
		}
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, m, cfg.OpenRouterSiteURL, cfg.OpenRouterAppName), nil
	})
	reg.Register("gemini", func(ctx context.Context, model string) (ai.Provider, error) {
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.GeminiModel
		}
		return ai.NewGeminiProvider(ctx, ai.GeminiConfig{
			APIKey:   cfg.GeminiAPIKey,
			Project:  cfg.GeminiProject,
			Location: cfg.GeminiLocation,
			Model:    m,
		})
	})

	provider, err := reg.Get(ctx, cfg.AIProvider, "")
	if err != nil {
		return nil, err
	}

	opts := []ai.RemoteOption{
		ai.WithTimeout(cfg.RemoteTimeout),
		ai.WithRemoteLogger(logger),
	}
	if cfg.RedisAddr != "" {
		rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rds.Ping(pingCtx); err != nil {
			logger.Warn("redis unavailable, label cache disabled", zap.Error(err))
			_ = rds.Close()
		} else {
			opts = append(opts, ai.WithCache(rds))
		}
	}
	return ai.NewRemote(provider, opts...), nil
}
