package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"votebyte/internal/config"
	"votebyte/internal/mailer"
	"votebyte/internal/queue"
	"votebyte/internal/store"
)

// Worker consumes queue events and sends the corresponding notifications.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "votebyte:events")
	}

	var mail mailer.Sender
	if cfg.MailBackend == "log" {
		mail = mailer.Log{}
	} else {
		mail = mailer.NewSMTP(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailFrom)
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for events...")
	for msg := range messages {
		switch msg.Type {
		case queue.TypeVoteCast:
			var evt queue.VoteCast
			if err := json.Unmarshal(msg.Body, &evt); err != nil {
				log.Printf("decode vote.cast event failed: %v", err)
				continue
			}
			if err := mail.SendVoteReceipt(ctx, evt.Email, evt.ElectionTitle, evt.CandidateName, evt.CastAt); err != nil {
				log.Printf("vote receipt to %s failed: %v", evt.Email, err)
				continue
			}
			log.Printf("vote receipt sent to %s for %q", evt.Email, evt.ElectionTitle)

		case queue.TypeVoterRegistered:
			var evt queue.VoterRegistered
			if err := json.Unmarshal(msg.Body, &evt); err != nil {
				log.Printf("decode voter.registered event failed: %v", err)
				continue
			}
			if err := mail.SendRegistrationNotice(ctx, evt.Email, evt.ElectionTitle); err != nil {
				log.Printf("registration notice to %s failed: %v", evt.Email, err)
				continue
			}
			log.Printf("registration notice sent to %s for %q", evt.Email, evt.ElectionTitle)

		default:
			log.Printf("skipping unknown event type %q", msg.Type)
		}
	}

	log.Println("worker stopped")
}
