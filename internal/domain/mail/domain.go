package mail

import (
	"context"
	"time"

	"github.com/NordCoder/Gatekeeper/internal/domain/account"
)

type TokenType string

const (
	TypeVerify        TokenType = "verify"
	TypePasswordReset TokenType = "password-reset"
)

func (t TokenType) Valid() bool {
	return t == TypeVerify || t == TypePasswordReset
}

// Task asks the mail pipeline to deliver Token to the account's address.
type Task struct {
	Account account.Account `json:"user"`
	Token   string          `json:"token"`
	Type    TokenType       `json:"type"`
}

// Event is the flattened form of a Task on the wire.
type Event struct {
	Key       string    `json:"key"`
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	Type      TokenType `json:"type"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, task Task) error
}

// Publisher moves mail events to the notifier.
type Publisher interface {
	PublishMailEvent(ctx context.Context, ev Event) error
}

// Delivery records one sent mail. Key is the event key, so a redelivered
// event can be recognised.
type Delivery struct {
	Key       string
	AccountID string
	Recipient string
	Type      TokenType
	SentAt    time.Time
}

type DeliveryLog interface {
	Delivered(ctx context.Context, key string) (bool, error)
	// Record stores d; recording an existing key is a no-op.
	Record(ctx context.Context, d Delivery) error
}

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
