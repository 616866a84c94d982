package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/portfolio-chat/internal/config"
	"github.com/suPer8Hu/portfolio-chat/internal/store/rabbitmq"
	"github.com/suPer8Hu/portfolio-chat/internal/transcript"
)

func main() {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	if cfg.RabbitURL == "" {
		slog.Error("RABBIT_URL is required for the transcript worker")
		os.Exit(1)
	}

	writer, err := transcript.NewWriter(cfg.TranscriptDir)
	if err != nil {
		slog.Error("transcript writer", "error", err)
		os.Exit(1)
	}

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		slog.Error("rabbit dial", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		slog.Error("rabbit channel", "error", err)
		os.Exit(1)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareQueues(ch, cfg.RabbitQueue); err != nil {
		slog.Error("queue declare", "error", err)
		os.Exit(1)
	}

	//  strict concurrency control
	concurrency := cfg.WorkerConcurrency

	if err := ch.Qos(concurrency, 0, false); err != nil {
		slog.Error("qos", "error", err)
		os.Exit(1)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		slog.Error("consume", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("transcript worker started", "queue", cfg.RabbitQueue, "concurrency", concurrency, "dir", cfg.TranscriptDir)

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				handleDelivery(workerID, writer, d)
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			slog.Info("transcript worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				slog.Warn("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}

// handleDelivery acks handled events, dead-letters malformed ones and
// requeues on write errors.
func handleDelivery(workerID int, w *transcript.Writer, d amqp.Delivery) {
	start := time.Now()
	err := w.Handle(d.Body)
	switch {
	case err == nil:
		if err := d.Ack(false); err != nil {
			slog.Warn("ack failed", "worker", workerID, "error", err)
		}
	case errors.Is(err, transcript.ErrBadEvent):
		slog.Warn("bad event", "worker", workerID, "error", err)
		_ = d.Nack(false, false)
	default:
		slog.Error("transcript write failed", "worker", workerID, "cost", time.Since(start), "error", err)
		_ = d.Nack(false, true)
	}
}
