package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NordCoder/Gatekeeper/internal/auth"
	"github.com/NordCoder/Gatekeeper/internal/domain/mail"
	"github.com/NordCoder/Gatekeeper/internal/domain/outbox"
)

var _ mail.Dispatcher = (*MailDispatcher)(nil)

// MailDispatcher records mail tasks in the outbox. Called inside a
// transaction it commits or rolls back together with the caller's writes.
type MailDispatcher struct {
	repo outbox.Repository
}

func NewMailDispatcher(repo outbox.Repository) *MailDispatcher {
	return &MailDispatcher{repo: repo}
}

func (d *MailDispatcher) Dispatch(ctx context.Context, task mail.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal mail task: %w", err)
	}
	return d.repo.Enqueue(ctx, auth.HashToken(task.Token), outbox.KindMailTask, data)
}
