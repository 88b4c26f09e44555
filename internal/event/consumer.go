package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"gamification-service/internal/models"

	"github.com/streadway/amqp"
)

// StatsUpdater is what the consumer needs from the gamification service:
// seed new learners and bump social counters when platform events arrive.
type StatsUpdater interface {
	HandleUserRegistered(ctx context.Context, userID string) error
	HandleSocialEvent(ctx context.Context, userID string, kind models.CriteriaType) error
}

type ExchangeConfig struct {
	Name       string
	Type       string
	Durable    bool
	AutoDelete bool
	Internal   bool
	NoWait     bool
	Args       amqp.Table
}

type BindingConfig struct {
	Exchange   string
	RoutingKey string
}

type EventConsumer struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
	updater   StatsUpdater
	shutdown  chan struct{}
	wg        sync.WaitGroup
	enabled   bool
}

func NewEventConsumer(rabbitURI string, updater StatsUpdater) (*EventConsumer, error) {
	if rabbitURI == "" {
		log.Println("Warning: RabbitMQ URI is empty, event consumption is disabled")
		return &EventConsumer{
			updater:  updater,
			shutdown: make(chan struct{}),
			enabled:  false,
		}, nil
	}

	conn, err := amqp.Dial(rabbitURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	if err := channel.Qos(10, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	return &EventConsumer{
		conn:      conn,
		channel:   channel,
		queueName: "gamification-service-events",
		updater:   updater,
		shutdown:  make(chan struct{}),
		enabled:   true,
	}, nil
}

func (c *EventConsumer) Start() error {
	if !c.enabled {
		log.Println("Event consumption is disabled, not starting consumer")
		return nil
	}

	exchanges := []ExchangeConfig{
		{Name: "user-events", Type: "topic", Durable: true},
		{Name: "social-events", Type: "topic", Durable: true},
		{Name: "course-events", Type: "topic", Durable: true},
	}

	for _, exchange := range exchanges {
		err := c.channel.ExchangeDeclare(
			exchange.Name,
			exchange.Type,
			exchange.Durable,
			exchange.AutoDelete,
			exchange.Internal,
			exchange.NoWait,
			exchange.Args,
		)
		if err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", exchange.Name, err)
		}
	}

	_, err := c.channel.QueueDeclare(
		c.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	bindings := []BindingConfig{
		{Exchange: "user-events", RoutingKey: "user.registered"},
		{Exchange: "social-events", RoutingKey: "social.#"},
		{Exchange: "course-events", RoutingKey: "course.completed"},
	}

	for _, binding := range bindings {
		err := c.channel.QueueBind(
			c.queueName,
			binding.RoutingKey,
			binding.Exchange,
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to bind queue to exchange %s with key %s: %w",
				binding.Exchange, binding.RoutingKey, err)
		}
	}

	msgs, err := c.channel.Consume(
		c.queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.consume(msgs)
	}()

	log.Println("Event consumer started")
	return nil
}

func (c *EventConsumer) consume(msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-c.shutdown:
			log.Println("Stopping event consumer")
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Println("Message channel closed")
				time.Sleep(5 * time.Second)
				return
			}

			if err := c.processMessage(msg); err != nil {
				log.Printf("Error processing message: %v", err)
				if err := msg.Nack(false, true); err != nil {
					log.Printf("Error NACKing message: %v", err)
				}
			} else {
				if err := msg.Ack(false); err != nil {
					log.Printf("Error ACKing message: %v", err)
				}
			}
		}
	}
}

type userEvent struct {
	UserID string `json:"user_id"`
}

func (c *EventConsumer) processMessage(msg amqp.Delivery) error {
	var event userEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event body: %w", err)
	}
	if event.UserID == "" {
		log.Printf("Event %s carries no user id, skipping", msg.RoutingKey)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch msg.RoutingKey {
	case "user.registered":
		return c.updater.HandleUserRegistered(ctx, event.UserID)
	case "social.friend.added":
		return c.updater.HandleSocialEvent(ctx, event.UserID, models.CriteriaFriendsAdded)
	case "social.group.joined":
		return c.updater.HandleSocialEvent(ctx, event.UserID, models.CriteriaGroupsJoined)
	case "course.completed":
		return c.updater.HandleSocialEvent(ctx, event.UserID, models.CriteriaCoursesCompleted)
	default:
		log.Printf("Unknown routing key: %s", msg.RoutingKey)
		return nil // acknowledge to avoid requeuing
	}
}

func (c *EventConsumer) Close() error {
	if !c.enabled {
		return nil
	}

	close(c.shutdown)
	c.wg.Wait()

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			log.Printf("Error closing RabbitMQ channel: %v", err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("error closing RabbitMQ connection: %w", err)
		}
	}
	return nil
}
