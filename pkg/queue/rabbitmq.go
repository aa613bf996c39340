package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quddle-backend/pkg/config"
	"quddle-backend/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	TranscodeQueueName  = "reel_transcode_queue"
	TranscodeExchange   = "media"
	TranscodeRoutingKey = "reel.uploaded"
)

// TranscodeTask tells the external pipeline a source video is ready. The
// pipeline reports back through the reel update callback.
type TranscodeTask struct {
	ReelID          string    `json:"reel_id"`
	UserID          string    `json:"user_id"`
	SourceBucket    string    `json:"source_bucket"`
	SourceKey       string    `json:"source_key"`
	ProcessedBucket string    `json:"processed_bucket"`
	CreatedAt       time.Time `json:"created_at"`
}

type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
}

func URL(cfg *config.Config) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	conn, err := amqp.Dial(URL(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(channel); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:    conn,
		channel: channel,
		logger:  log,
	}, nil
}

func declareTopology(channel *amqp.Channel) error {
	err := channel.ExchangeDeclare(
		TranscodeExchange, // name
		"direct",          // type
		true,              // durable
		false,             // auto-deleted
		false,             // internal
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		TranscodeQueueName, // name
		true,               // durable
		false,              // delete when unused
		false,              // exclusive
		false,              // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		TranscodeQueueName,  // queue name
		TranscodeRoutingKey, // routing key
		TranscodeExchange,   // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
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

func EncodeTask(task *TranscodeTask) (amqp.Publishing, error) {
	body, err := json.Marshal(task)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal task: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    task.ReelID,
		Timestamp:    time.Now(),
	}, nil
}

// PublishTranscodeTask publishes a persistent transcode task for a finalized reel.
func (c *Client) PublishTranscodeTask(ctx context.Context, task *TranscodeTask) error {
	msg, err := EncodeTask(task)
	if err != nil {
		return err
	}

	err = c.channel.PublishWithContext(ctx,
		TranscodeExchange,   // exchange
		TranscodeRoutingKey, // routing key
		false,               // mandatory
		false,               // immediate
		msg,
	)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to publish message to exchange=%s, routing_key=%s: %v", TranscodeExchange, TranscodeRoutingKey, err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Info("[RABBITMQ] Published transcode task reel_id=%s key=%s", task.ReelID, task.SourceKey)
	return nil
}
