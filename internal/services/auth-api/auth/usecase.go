package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	authx "github.com/NordCoder/Gatekeeper/internal/auth"
	"github.com/NordCoder/Gatekeeper/internal/domain/account"
	"github.com/NordCoder/Gatekeeper/internal/domain/mail"
	"github.com/NordCoder/Gatekeeper/internal/domain/token"
	"github.com/NordCoder/Gatekeeper/internal/obs"
)

type Transactor interface {
	WithTx(ctx context.Context, function func(ctx context.Context) error) error
}

type Config struct {
	// RefreshChecksRevocation makes Refresh reject blacklisted refresh tokens.
	RefreshChecksRevocation bool
	Now                     func() time.Time
}

type RegisterInput struct {
	Email           string
	Username        string
	Password        string
	ConfirmPassword string
}

type PasswordResetInput struct {
	Password        string
	ConfirmPassword string
}

type PasswordUpdateInput struct {
	OldPassword     string
	Password        string
	ConfirmPassword string
}

type Usecase struct {
	accounts    account.Store
	revocations token.RevocationStore
	codec       *authx.Codec
	hasher      authx.Hasher
	mail        mail.Dispatcher
	tx          Transactor
	cfg         Config
	log         *zap.Logger
	tracer      trace.Tracer
}

func NewUseCase(
	accounts account.Store,
	revocations token.RevocationStore,
	codec *authx.Codec,
	hasher authx.Hasher,
	dispatcher mail.Dispatcher,
	tx Transactor,
	cfg Config,
	log *zap.Logger,
) *Usecase {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{
		accounts:    accounts,
		revocations: revocations,
		codec:       codec,
		hasher:      hasher,
		mail:        dispatcher,
		tx:          tx,
		cfg:         cfg,
		log:         log.With(zap.String("component", "auth.usecase")),
		tracer:      otel.Tracer("auth.usecase"),
	}
}

// Register creates an unverified account and queues its verification mail
// in the same transaction.
func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*account.Account, mail.Task, error) {
	ctx, span := u.tracer.Start(ctx, "auth.Register")
	defer span.End()

	if in.Password != in.ConfirmPassword {
		return nil, mail.Task{}, authx.ErrPasswordsDidNotMatch
	}
	email := account.NormalizeEmail(in.Email)

	if _, err := u.accounts.FindByEmail(ctx, email); err == nil {
		return nil, mail.Task{}, authx.ErrEmailAlreadyRegistered
	} else if !errors.Is(err, account.ErrNotFound) {
		return nil, mail.Task{}, fmt.Errorf("find by email: %w", err)
	}
	if _, err := u.accounts.FindByUsername(ctx, in.Username); err == nil {
		return nil, mail.Task{}, authx.ErrUsernameAlreadyTaken
	} else if !errors.Is(err, account.ErrNotFound) {
		return nil, mail.Task{}, fmt.Errorf("find by username: %w", err)
	}

	digest, err := authx.HashContext(ctx, u.hasher, in.Password)
	if err != nil {
		return nil, mail.Task{}, fmt.Errorf("hash password: %w", err)
	}
	acc := account.New(email, in.Username, digest, u.cfg.Now())

	var task mail.Task
	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := u.accounts.Create(ctx, acc); err != nil {
			switch {
			case errors.Is(err, account.ErrEmailTaken):
				return authx.ErrEmailAlreadyRegistered
			case errors.Is(err, account.ErrUsernameTaken):
				return authx.ErrUsernameAlreadyTaken
			}
			return fmt.Errorf("create account: %w", err)
		}
		encoded, err := u.codec.MailToken(acc.ID.String())
		if err != nil {
			return fmt.Errorf("mail token: %w", err)
		}
		task = mail.Task{Account: *acc, Token: encoded, Type: mail.TypeVerify}
		return u.mail.Dispatch(ctx, task)
	})
	if err != nil {
		return nil, mail.Task{}, err
	}

	obs.WithTrace(ctx, u.log).Info("account registered", zap.String("account_id", acc.ID.String()))
	return acc, task, nil
}

// Login checks credentials before the verification flag, so an unverified
// account with a wrong password still reports bad credentials.
func (u *Usecase) Login(ctx context.Context, email, password string) (token.Pair, error) {
	ctx, span := u.tracer.Start(ctx, "auth.Login")
	defer span.End()

	acc, err := account.Authenticate(ctx, u.accounts, ctxVerifier{ctx: ctx, h: u.hasher}, email, password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			return token.Pair{}, authx.ErrIncorrectEmailOrPassword
		}
		return token.Pair{}, err
	}
	if !acc.IsVerified {
		return token.Pair{}, authx.ErrEmailNotVerified
	}
	pair, err := u.codec.IssuePair(acc.ID.String())
	if err != nil {
		return token.Pair{}, fmt.Errorf("issue pair: %w", err)
	}
	return pair, nil
}

// Logout blacklists the presented token until its own expiry. Sibling
// tokens of the same pair stay valid.
func (u *Usecase) Logout(ctx context.Context, encoded string) error {
	ctx, span := u.tracer.Start(ctx, "auth.Logout")
	defer span.End()

	claims, err := u.codec.DecodeAndVerify(ctx, encoded, u.revocations)
	if err != nil {
		return err
	}
	if err := u.revocations.Blacklist(ctx, claims.ID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("blacklist: %w", err)
	}
	return nil
}

func (u *Usecase) Verify(ctx context.Context, encoded string) error {
	ctx, span := u.tracer.Start(ctx, "auth.Verify")
	defer span.End()

	claims, err := u.codec.DecodeAndVerify(ctx, encoded, u.revocations)
	if err != nil {
		return err
	}
	acc, err := u.subject(ctx, claims)
	if err != nil {
		return err
	}
	if acc.IsVerified {
		return nil
	}
	acc.IsVerified = true
	if err := u.accounts.Save(ctx, acc); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

// Refresh returns a new access token; the caller keeps its refresh token.
func (u *Usecase) Refresh(ctx context.Context, refresh string) (string, error) {
	ctx, span := u.tracer.Start(ctx, "auth.Refresh")
	defer span.End()

	if u.cfg.RefreshChecksRevocation {
		if _, err := u.codec.DecodeAndVerify(ctx, refresh, u.revocations); err != nil {
			return "", err
		}
	}
	return u.codec.Refresh(refresh)
}

func (u *Usecase) ForgotPassword(ctx context.Context, email string) (mail.Task, error) {
	ctx, span := u.tracer.Start(ctx, "auth.ForgotPassword")
	defer span.End()

	acc, err := u.accounts.FindByEmail(ctx, account.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return mail.Task{}, authx.ErrUserNotFound
		}
		return mail.Task{}, fmt.Errorf("find by email: %w", err)
	}
	encoded, err := u.codec.MailToken(acc.ID.String())
	if err != nil {
		return mail.Task{}, fmt.Errorf("mail token: %w", err)
	}
	task := mail.Task{Account: *acc, Token: encoded, Type: mail.TypePasswordReset}
	if err := u.mail.Dispatch(ctx, task); err != nil {
		return mail.Task{}, fmt.Errorf("dispatch mail: %w", err)
	}
	return task, nil
}

// ResetPassword sets a new password and burns the reset token.
func (u *Usecase) ResetPassword(ctx context.Context, encoded string, in PasswordResetInput) error {
	ctx, span := u.tracer.Start(ctx, "auth.ResetPassword")
	defer span.End()

	if in.Password != in.ConfirmPassword {
		return authx.ErrPasswordsDidNotMatch
	}
	claims, err := u.codec.DecodeAndVerify(ctx, encoded, u.revocations)
	if err != nil {
		return err
	}
	acc, err := u.subject(ctx, claims)
	if err != nil {
		return err
	}
	digest, err := authx.HashContext(ctx, u.hasher, in.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	acc.PasswordHash = digest

	return u.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := u.accounts.Save(ctx, acc); err != nil {
			return fmt.Errorf("save account: %w", err)
		}
		if err := u.revocations.Blacklist(ctx, claims.ID, claims.ExpiresAt); err != nil {
			return fmt.Errorf("blacklist reset token: %w", err)
		}
		return nil
	})
}

func (u *Usecase) PasswordUpdate(ctx context.Context, encoded string, in PasswordUpdateInput) error {
	ctx, span := u.tracer.Start(ctx, "auth.PasswordUpdate")
	defer span.End()

	if in.Password != in.ConfirmPassword {
		return authx.ErrPasswordsDidNotMatch
	}
	claims, err := u.codec.DecodeAndVerify(ctx, encoded, u.revocations)
	if err != nil {
		return err
	}
	acc, err := u.subject(ctx, claims)
	if err != nil {
		return err
	}
	if !authx.VerifyContext(ctx, u.hasher, in.OldPassword, acc.PasswordHash) {
		return authx.ErrOldPasswordIncorrect
	}
	digest, err := authx.HashContext(ctx, u.hasher, in.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	acc.PasswordHash = digest
	if err := u.accounts.Save(ctx, acc); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (u *Usecase) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	acc, err := u.accounts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, authx.ErrUserNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return acc, nil
}

// subject loads the account a verified token was issued for.
func (u *Usecase) subject(ctx context.Context, claims token.Claims) (*account.Account, error) {
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, authx.ErrUserNotFound
	}
	return u.Get(ctx, id)
}

// ctxVerifier binds a request context to password checks.
type ctxVerifier struct {
	ctx context.Context
	h   authx.Hasher
}

func (v ctxVerifier) Verify(password, digest string) bool {
	return authx.VerifyContext(v.ctx, v.h, password, digest)
}
