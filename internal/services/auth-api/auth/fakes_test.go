package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	authx "github.com/NordCoder/Gatekeeper/internal/auth"
	"github.com/NordCoder/Gatekeeper/internal/domain/account"
	"github.com/NordCoder/Gatekeeper/internal/domain/mail"
)

type memAccounts struct {
	mu   sync.Mutex
	byID map[uuid.UUID]account.Account
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: map[uuid.UUID]account.Account{}}
}

func (m *memAccounts) find(match func(account.Account) bool) (*account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if match(a) {
			cp := a
			return &cp, nil
		}
	}
	return nil, account.ErrNotFound
}

func (m *memAccounts) FindByEmail(_ context.Context, email string) (*account.Account, error) {
	email = account.NormalizeEmail(email)
	return m.find(func(a account.Account) bool { return a.Email == email })
}

func (m *memAccounts) FindByUsername(_ context.Context, username string) (*account.Account, error) {
	return m.find(func(a account.Account) bool { return a.Username == username })
}

func (m *memAccounts) Get(_ context.Context, id uuid.UUID) (*account.Account, error) {
	return m.find(func(a account.Account) bool { return a.ID == id })
}

func (m *memAccounts) Create(_ context.Context, a *account.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.byID {
		if cur.Email == a.Email {
			return account.ErrEmailTaken
		}
		if cur.Username == a.Username {
			return account.ErrUsernameTaken
		}
	}
	m.byID[a.ID] = *a
	return nil
}

func (m *memAccounts) Save(_ context.Context, a *account.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[a.ID]
	if !ok {
		return account.ErrNotFound
	}
	next := *a
	next.IsVerified = cur.IsVerified || a.IsVerified
	m.byID[a.ID] = next
	return nil
}

type memRevocations struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newMemRevocations() *memRevocations {
	return &memRevocations{entries: map[string]time.Time{}}
}

func (m *memRevocations) IsBlacklisted(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[id]
	return ok, nil
}

func (m *memRevocations) Blacklist(_ context.Context, id string, expireAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.entries[id]; !ok || expireAt.After(cur) {
		m.entries[id] = expireAt
	}
	return nil
}

func (m *memRevocations) DeleteExpired(context.Context) (int64, error) { return 0, nil }

type recordingDispatcher struct {
	mu    sync.Mutex
	tasks []mail.Task
	err   error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, task mail.Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.tasks = append(d.tasks, task)
	return nil
}

func (d *recordingDispatcher) last() mail.Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tasks[len(d.tasks)-1]
}

// noTx runs the function directly; memAccounts has no rollback.
type noTx struct{}

func (noTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	uc       *Usecase
	accounts *memAccounts
	revoked  *memRevocations
	mail     *recordingDispatcher
	clock    *clock
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	clk := &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec, err := authx.NewCodec(authx.CodecConfig{
		Secret:     "test-secret",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		Now:        clk.Now,
	})
	require.NoError(t, err)

	f := &fixture{
		accounts: newMemAccounts(),
		revoked:  newMemRevocations(),
		mail:     &recordingDispatcher{},
		clock:    clk,
	}
	cfg.Now = clk.Now
	f.uc = NewUseCase(f.accounts, f.revoked, codec, authx.NewBcryptHasher(bcrypt.MinCost), f.mail, noTx{}, cfg, nil)
	return f
}

// registerVerified creates an account and verifies it through its mail token.
func (f *fixture) registerVerified(t *testing.T, email, username, password string) *account.Account {
	t.Helper()
	acc, task, err := f.uc.Register(context.Background(), RegisterInput{
		Email: email, Username: username, Password: password, ConfirmPassword: password,
	})
	require.NoError(t, err)
	require.NoError(t, f.uc.Verify(context.Background(), task.Token))
	return acc
}
