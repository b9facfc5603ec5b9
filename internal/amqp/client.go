// Package amqp connects the refresh worker to its message broker: it
// consumes refresh requests and publishes sync-completed events.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	requestQueue string
	syncedQueue  string
}

func NewClient(url, exchangeName, requestQueue, syncedQueue string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		requestQueue: requestQueue,
		syncedQueue:  syncedQueue,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, queue := range []string{c.requestQueue, c.syncedQueue} {
		_, err = c.channel.QueueDeclare(
			queue, // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}

		// routing key == queue name on a direct exchange
		if err := c.channel.QueueBind(queue, queue, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return nil
}

// PublishRefreshRequest enqueues a refresh for the given budget.
func (c *Client) PublishRefreshRequest(ctx context.Context, budgetID string) error {
	body, err := NewRefreshRequest(budgetID).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal refresh request: %w", err)
	}
	if err := c.publish(ctx, c.requestQueue, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published refresh request",
		"budget_id", budgetID,
		"exchange", c.exchangeName,
		"queue", c.requestQueue)
	return nil
}

// PublishBudgetSynced announces a completed refresh.
func (c *Client) PublishBudgetSynced(ctx context.Context, budgetID string, serverKnowledge int64) error {
	body, err := NewBudgetSynced(budgetID, serverKnowledge).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal budget synced: %w", err)
	}
	if err := c.publish(ctx, c.syncedQueue, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published budget synced",
		"budget_id", budgetID,
		"server_knowledge", serverKnowledge)
	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// ConsumeRefreshRequests delivers refresh requests to handler until the
// context is cancelled. Messages that fail to decode are rejected without
// requeue; handler errors requeue the message.
func (c *Client) ConsumeRefreshRequests(ctx context.Context, handler func(*RefreshRequest) error) error {
	msgs, err := c.channel.Consume(
		c.requestQueue, // queue
		"",             // consumer
		false,          // auto-ack (manual ack)
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming refresh requests", "queue", c.requestQueue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := RefreshRequestFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal refresh request", "error", err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle refresh request",
					"error", err,
					"budget_id", msg.BudgetID)
				delivery.Nack(false, true)
				continue
			}

			delivery.Ack(false)
			slog.InfoContext(ctx, "Processed refresh request", "budget_id", msg.BudgetID)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
