package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	TopicUsers = "user_events"
	TopicCart  = "cart_events"
)

const (
	TypeUserRegistered = "user_registered"
	TypeUserLoggedIn   = "user_logged_in"
	TypeUserLoggedOut  = "user_logged_out"
	TypeCartItemAdded  = "cart_item_added"
)

// Event is the JSON body written to a topic. Only the fields relevant to
// Type are set.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     uint      `json:"user_id"`
	Email      string    `json:"email,omitempty"`
	ProductID  uint      `json:"product_id,omitempty"`
	Quantity   int       `json:"quantity,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, topic string, ev Event) error
	Close() error
}

func (e Event) key() []byte {
	return []byte(strconv.FormatUint(uint64(e.UserID), 10))
}

func encode(ev Event) ([]byte, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}
	return data, nil
}

func UserRegistered(userID uint, email string) Event {
	return Event{Type: TypeUserRegistered, UserID: userID, Email: email}
}

func UserLoggedIn(userID uint) Event {
	return Event{Type: TypeUserLoggedIn, UserID: userID}
}

func UserLoggedOut(userID uint) Event {
	return Event{Type: TypeUserLoggedOut, UserID: userID}
}

func CartItemAdded(userID, productID uint, quantity int) Event {
	return Event{Type: TypeCartItemAdded, UserID: userID, ProductID: productID, Quantity: quantity}
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Event) error { return nil }
func (NopPublisher) Close() error                                 { return nil }
