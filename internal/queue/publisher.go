package queue

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/art-gallery/internal/logutil"
)

// Publisher sends a JSON payload to the queue named by routingKey.
type Publisher interface {
    Publish(ctx context.Context, routingKey string, payload any) error
}

// Noop discards events; it is used when EVENTS_ENABLED is false.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }

// AMQPPublisher dials the broker for every publish so that it holds no
// connection state between requests.  Errors are logged and returned so
// callers can choose to ignore them.
type AMQPPublisher struct {
    URL string
}

func NewAMQPPublisher(url string) *AMQPPublisher { return &AMQPPublisher{URL: url} }

// encode builds the persistent message for payload.
func encode(payload any, now time.Time) (amqp.Publishing, error) {
    body, err := json.Marshal(payload)
    if err != nil {
        return amqp.Publishing{}, err
    }
    return amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    now.UTC(),
        Body:         body,
    }, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
    log := logutil.GetOrDefault(ctx).With().Str("queue", routingKey).Logger()

    pub, err := encode(payload, time.Now())
    if err != nil {
        log.Error().Err(err).Msg("rabbitmq: marshal event failed")
        return err
    }

    conn, err := amqp.Dial(p.URL)
    if err != nil {
        log.Warn().Err(err).Msg("rabbitmq: dial failed")
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Warn().Err(err).Msg("rabbitmq: channel open failed")
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        routingKey, // name
        true,       // durable
        false,      // autoDelete
        false,      // exclusive
        false,      // noWait
        nil,        // args
    ); err != nil {
        log.Warn().Err(err).Msg("rabbitmq: queue declare failed")
        return err
    }

    if err := ch.PublishWithContext(ctx,
        "",         // default exchange
        routingKey, // routing key = queue name
        false,      // mandatory
        false,      // immediate
        pub,
    ); err != nil {
        log.Warn().Err(err).Msg("rabbitmq: publish failed")
        return err
    }
    return nil
}
