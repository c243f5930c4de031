package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/supportbot/internal/audit"
	"github.com/suPer8Hu/supportbot/internal/config"
	"github.com/suPer8Hu/supportbot/internal/db"
	"github.com/suPer8Hu/supportbot/internal/events"
	"github.com/suPer8Hu/supportbot/internal/logging"
	"github.com/suPer8Hu/supportbot/internal/store/rabbitmq"
	"go.uber.org/zap"
)

var errBadMessage = errors.New("bad message")

type eventArchive interface {
	SaveEvent(ctx context.Context, e events.Event) error
}

// handleEvent decodes one delivery body and archives it. errBadMessage
// marks bodies that will never succeed.
func handleEvent(ctx context.Context, archive eventArchive, body []byte) (events.Event, error) {
	var e events.Event
	if err := json.Unmarshal(body, &e); err != nil {
		return e, fmt.Errorf("%w: %v", errBadMessage, err)
	}
	if e.ID == "" || e.Type == "" {
		return e, fmt.Errorf("%w: missing id or type", errBadMessage)
	}
	return e, archive.SaveEvent(ctx, e)
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.DBDSN == "" || cfg.RabbitURL == "" {
		logger.Fatal("worker needs DB_DSN and RABBIT_URL")
	}

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	repo := audit.NewRepo(gdb)
	if err := repo.Migrate(); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		logger.Fatal("rabbit dial", zap.Error(err))
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("rabbit channel", zap.Error(err))
	}
	defer ch.Close()

	if err := rabbitmq.DeclareQueues(ch, cfg.RabbitQueue); err != nil {
		logger.Fatal("queue declare", zap.Error(err))
	}

	//  strict concurrency control
	concurrency := cfg.WorkerConcurrency
	if err := ch.Qos(concurrency, 0, false); err != nil {
		logger.Fatal("qos", zap.Error(err))
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.Fatal("consume", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("worker started", zap.String("queue", cfg.RabbitQueue), zap.Int("concurrency", concurrency))

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				start := time.Now()
				e, err := handleEvent(ctx, repo, d.Body)
				if err != nil {
					logger.Warn("event failed",
						zap.Int("worker", workerID),
						zap.String("event_id", e.ID),
						zap.Duration("cost", time.Since(start)),
						zap.Error(err),
					)
					// bad bodies and db failures both go to the DLQ
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					logger.Warn("ack failed", zap.Int("worker", workerID), zap.String("event_id", e.ID), zap.Error(err))
				}
				logger.Debug("event archived", zap.String("event_id", e.ID), zap.String("type", e.Type))
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				logger.Warn("delivery channel closed")
				close(jobs)
				wg.Wait()
				return
			}
			jobs <- d
		}
	}
}
