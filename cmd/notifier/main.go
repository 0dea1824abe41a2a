// The notifier consumes the order-events topic and feeds envelopes into a
// local hub. A realtime transport (one persistent channel per connected
// client, e.g. a WebSocket gateway) embeds this process and attaches its
// connections to the hub: staff connections to the staff channel, every
// connection to its own owner channel.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/example/menu-orders/internal/kafka"
	"github.com/example/menu-orders/internal/notify"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Configuration from environment variables
	kafkaBrokersStr := getEnv("KAFKA_BROKERS", "localhost:9092")
	kafkaBrokers := strings.Split(kafkaBrokersStr, ",")
	kafkaTopic := getEnv("KAFKA_TOPIC", "order-events")
	consumerGroup := getEnv("KAFKA_GROUP", "order-notifier")

	log.Println("[Notifier] ========================================")
	log.Println("[Notifier] Menu Orders - Notification Gateway")
	log.Println("[Notifier] ========================================")
	log.Printf("[Notifier] Kafka: %v", kafkaBrokers)
	log.Printf("[Notifier] Topic: %s", kafkaTopic)
	log.Printf("[Notifier] Group: %s", consumerGroup)

	hub := notify.NewHub()

	consumer := kafka.NewConsumer(kafkaBrokers, kafkaTopic, consumerGroup)
	defer consumer.Close()

	go func() {
		log.Println("[Notifier] Starting event consumer...")
		err := consumer.Consume(ctx, func(ctx context.Context, key, value []byte) error {
			var env notify.Envelope
			if err := json.Unmarshal(value, &env); err != nil {
				log.Printf("[Notifier] Skipping malformed envelope: %v", err)
				return nil
			}

			log.Printf("[Notifier] Order %d %s (status=%s, owner=%s)",
				env.Data.OrderID, env.Action, env.Data.Status, env.Data.Owner.ID)

			hub.Broadcast(notify.StaffChannel(), env)
			hub.Broadcast(notify.OwnerChannel(env.Data.Owner.ID), env)
			return nil
		})
		if err != nil && ctx.Err() == nil {
			log.Printf("[Notifier] Consumer error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Notifier] Shutting down...")
	cancel()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
