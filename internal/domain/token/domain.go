package token

import "time"

// Registered claim names. Extra claims never override them.
const (
	ClaimSubject   = "sub"
	ClaimID        = "jti"
	ClaimIssuedAt  = "iat"
	ClaimExpiresAt = "exp"
)

type Claims struct {
	Subject   string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Extra     map[string]any
}

type Token struct {
	Encoded   string
	Claims    Claims
	ExpiresAt time.Time
}

type Pair struct {
	Access  Token
	Refresh Token
}

func IsRegistered(name string) bool {
	switch name {
	case ClaimSubject, ClaimID, ClaimIssuedAt, ClaimExpiresAt:
		return true
	}
	return false
}
