// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the background consumer.
package queue

import "time"

// Queue names double as routing keys on the default exchange.
const (
    AccountRegisteredQueue = "account.registered"
    ProductCreatedQueue    = "product.created"
)

// AccountRegisteredEvent is published after an account has been persisted.
// It never carries password material.
type AccountRegisteredEvent struct {
    AccountID    string    `json:"account_id"`
    Username     string    `json:"username"`
    Email        string    `json:"email"`
    HasAvatar    bool      `json:"has_avatar"`
    RegisteredAt time.Time `json:"registered_at"`
}

// ProductCreatedEvent is published when a product is added to the catalog.
type ProductCreatedEvent struct {
    ProductID     string    `json:"product_id"`
    OwnerUsername string    `json:"owner_username"`
    Title         string    `json:"title"`
    Price         float64   `json:"price"`
    CreatedAt     time.Time `json:"created_at"`
}
