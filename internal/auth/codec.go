package auth

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NordCoder/Gatekeeper/internal/domain/token"
)

// MailTokenLifetime bounds verification and password-reset links.
const MailTokenLifetime = 2 * time.Hour

var (
	ErrMissingSecret       = errors.New("jwt: signing secret is empty")
	ErrUnsupportedMethod   = errors.New("jwt: unsupported signing algorithm")
	ErrNonPositiveLifetime = errors.New("jwt: token lifetime must be positive")
)

type CodecConfig struct {
	Secret     string
	Algorithm  string // HS256, HS384 or HS512
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
	Logger     *zap.Logger
}

// Codec signs and verifies JWTs with a symmetric key fixed at construction.
type Codec struct {
	method     jwt.SigningMethod
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	log        *zap.Logger
}

func NewCodec(cfg CodecConfig) (*Codec, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, ErrNonPositiveLifetime
	}
	alg := cfg.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, cfg.Algorithm)
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Codec{
		method:     method,
		key:        []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
		log:        cfg.Logger.With(zap.String("component", "jwt_codec")),
	}, nil
}

// Issue signs claims with expiry now+lifetime. A zero IssuedAt becomes now
// and an empty ID gets a random UUID.
func (c *Codec) Issue(claims token.Claims, lifetime time.Duration) (token.Token, error) {
	if lifetime <= 0 {
		return token.Token{}, ErrNonPositiveLifetime
	}
	now := c.now()
	if claims.IssuedAt.IsZero() {
		claims.IssuedAt = now
	}
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
	claims.IssuedAt = claims.IssuedAt.Truncate(jwt.TimePrecision)
	claims.ExpiresAt = now.Add(lifetime).Truncate(jwt.TimePrecision)

	signed, err := jwt.NewWithClaims(c.method, toMapClaims(claims)).SignedString(c.key)
	if err != nil {
		return token.Token{}, fmt.Errorf("jwt: sign token: %w", err)
	}
	return token.Token{Encoded: signed, Claims: claims, ExpiresAt: claims.ExpiresAt}, nil
}

// IssuePair issues an access and a refresh token for subject. Both share
// one issued-at instant and derive their ids from a single random seed.
func (c *Codec) IssuePair(subject string) (token.Pair, error) {
	seed := uuid.New()
	iat := c.now()

	access, err := c.Issue(token.Claims{
		Subject:  subject,
		ID:       uuid.NewSHA1(seed, []byte("access")).String(),
		IssuedAt: iat,
	}, c.accessTTL)
	if err != nil {
		return token.Pair{}, err
	}
	refresh, err := c.Issue(token.Claims{
		Subject:  subject,
		ID:       uuid.NewSHA1(seed, []byte("refresh")).String(),
		IssuedAt: iat,
	}, c.refreshTTL)
	if err != nil {
		return token.Pair{}, err
	}
	return token.Pair{Access: access, Refresh: refresh}, nil
}

// MailToken issues a short-lived token for verification and reset links.
func (c *Codec) MailToken(subject string) (string, error) {
	t, err := c.Issue(token.Claims{Subject: subject}, MailTokenLifetime)
	if err != nil {
		return "", err
	}
	return t.Encoded, nil
}

// DecodeAndVerify checks signature and expiry, then consults revocations.
// Every rejection is ErrAuthFailed; only a failing revocation lookup
// surfaces as a different error.
func (c *Codec) DecodeAndVerify(ctx context.Context, encoded string, revocations token.RevocationChecker) (token.Claims, error) {
	claims, err := c.decode(encoded)
	if err != nil {
		return token.Claims{}, err
	}
	revoked, err := revocations.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return token.Claims{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		c.log.Debug("token rejected", zap.String("jti", claims.ID), zap.String("reason", "blacklisted"))
		return token.Claims{}, ErrAuthFailed
	}
	return claims, nil
}

// Refresh issues a new access token carrying the subject and extra claims
// of encoded. The revocation store is not consulted.
func (c *Codec) Refresh(encoded string) (string, error) {
	claims, err := c.decode(encoded)
	if err != nil {
		return "", err
	}
	t, err := c.Issue(token.Claims{
		Subject: claims.Subject,
		Extra:   claims.Extra,
	}, c.accessTTL)
	if err != nil {
		return "", err
	}
	return t.Encoded, nil
}

func (c *Codec) decode(encoded string) (token.Claims, error) {
	parsed, err := jwt.Parse(encoded, c.keyFunc,
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		c.log.Debug("token rejected", zap.Error(err))
		return token.Claims{}, ErrAuthFailed
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return token.Claims{}, ErrAuthFailed
	}
	claims, err := fromMapClaims(mc)
	if err != nil {
		c.log.Debug("token rejected", zap.Error(err))
		return token.Claims{}, ErrAuthFailed
	}
	return claims, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if t.Method.Alg() != c.method.Alg() {
		return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
	}
	return c.key, nil
}

func toMapClaims(c token.Claims) jwt.MapClaims {
	mc := make(jwt.MapClaims, len(c.Extra)+4)
	for k, v := range c.Extra {
		if !token.IsRegistered(k) {
			mc[k] = v
		}
	}
	mc[token.ClaimSubject] = c.Subject
	mc[token.ClaimID] = c.ID
	mc[token.ClaimIssuedAt] = jwt.NewNumericDate(c.IssuedAt)
	mc[token.ClaimExpiresAt] = jwt.NewNumericDate(c.ExpiresAt)
	return mc
}

func fromMapClaims(mc jwt.MapClaims) (token.Claims, error) {
	sub, err := mc.GetSubject()
	if err != nil || sub == "" {
		return token.Claims{}, errors.New("missing sub claim")
	}
	jti, _ := mc[token.ClaimID].(string)
	if jti == "" {
		return token.Claims{}, errors.New("missing jti claim")
	}
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return token.Claims{}, errors.New("missing exp claim")
	}
	out := token.Claims{Subject: sub, ID: jti, ExpiresAt: exp.Time}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	extra := maps.Clone(mc)
	for k := range extra {
		if token.IsRegistered(k) {
			delete(extra, k)
		}
	}
	if len(extra) > 0 {
		out.Extra = extra
	}
	return out, nil
}
