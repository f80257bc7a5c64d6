package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

var ErrEmptyPassword = errors.New("password: empty")

// Hasher turns plaintext passwords into salted digests and checks them.
type Hasher interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches digest. Malformed digests
	// never match.
	Verify(password, digest string) bool
}

// ContextHasher is implemented by hashers that may wait before doing work.
type ContextHasher interface {
	HashContext(ctx context.Context, password string) (string, error)
	VerifyContext(ctx context.Context, password, digest string) bool
}

// HashContext hashes with h, giving up on ctx when h supports it.
func HashContext(ctx context.Context, h Hasher, password string) (string, error) {
	if ch, ok := h.(ContextHasher); ok {
		return ch.HashContext(ctx, password)
	}
	return h.Hash(password)
}

// VerifyContext verifies with h; a cancelled wait reports no match.
func VerifyContext(ctx context.Context, h Hasher, password, digest string) bool {
	if ch, ok := h.(ContextHasher); ok {
		return ch.VerifyContext(ctx, password, digest)
	}
	return h.Verify(password, digest)
}

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

type HasherConfig struct {
	Algorithm     string
	BcryptCost    int
	MaxConcurrent int64
}

// NewHasher builds the configured hasher, bounded by MaxConcurrent when set.
func NewHasher(cfg HasherConfig) (Hasher, error) {
	var h Hasher
	switch strings.ToLower(cfg.Algorithm) {
	case "", AlgorithmBcrypt:
		h = NewBcryptHasher(cfg.BcryptCost)
	case AlgorithmArgon2id:
		h = NewArgon2idHasher(DefaultArgon2idParams)
	default:
		return nil, fmt.Errorf("password: unsupported algorithm %q", cfg.Algorithm)
	}
	if cfg.MaxConcurrent > 0 {
		h = NewLimitedHasher(h, cfg.MaxConcurrent)
	}
	return h, nil
}

type BcryptHasher struct {
	cost int
}

// NewBcryptHasher falls back to bcrypt.DefaultCost for out-of-range costs.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	b, err := bcrypt.GenerateFromPassword(bcryptInput(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("password: bcrypt: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), bcryptInput(password)) == nil
}

// bcryptInput digests the password to 44 ASCII bytes, below bcrypt's
// 72-byte limit, so every byte of a long password counts.
func bcryptInput(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

type Argon2idParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

var DefaultArgon2idParams = Argon2idParams{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 16,
}

type Argon2idHasher struct {
	p Argon2idParams
}

func NewArgon2idHasher(p Argon2idParams) *Argon2idHasher {
	return &Argon2idHasher{p: p}
}

// Hash encodes as $argon2id$v=19$m=MEMORY,t=TIME,p=THREADS$SALT$KEY.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, h.p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("password: salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, h.p.Time, h.p.Memory, h.p.Threads, h.p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.p.Memory, h.p.Time, h.p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2idHasher) Verify(password, digest string) bool {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}
	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// LimitedHasher caps how many hash operations run at once.
type LimitedHasher struct {
	next Hasher
	sem  *semaphore.Weighted
}

func NewLimitedHasher(next Hasher, n int64) *LimitedHasher {
	return &LimitedHasher{next: next, sem: semaphore.NewWeighted(n)}
}

var _ ContextHasher = (*LimitedHasher)(nil)

func (h *LimitedHasher) Hash(password string) (string, error) {
	return h.HashContext(context.Background(), password)
}

func (h *LimitedHasher) Verify(password, digest string) bool {
	return h.VerifyContext(context.Background(), password, digest)
}

func (h *LimitedHasher) HashContext(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("password: wait for slot: %w", err)
	}
	defer h.sem.Release(1)
	return HashContext(ctx, h.next, password)
}

func (h *LimitedHasher) VerifyContext(ctx context.Context, password, digest string) bool {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)
	return VerifyContext(ctx, h.next, password, digest)
}
