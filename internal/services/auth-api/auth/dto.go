package auth

import (
	"github.com/NordCoder/Gatekeeper/internal/domain/token"
)

type registerRequest struct {
	Email           string `json:"email" validate:"required,email,max=254"`
	Username        string `json:"username" validate:"required,min=1,max=64"`
	Password        string `json:"password" validate:"required,max=256"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type passwordResetRequest struct {
	Password        string `json:"password" validate:"required,max=256"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type passwordUpdateRequest struct {
	OldPassword     string `json:"old_password" validate:"required"`
	Password        string `json:"password" validate:"required,max=256"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func toTokenPairResponse(p token.Pair) tokenPairResponse {
	return tokenPairResponse{AccessToken: p.Access.Encoded, RefreshToken: p.Refresh.Encoded}
}

type successResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Kind   string            `json:"kind"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}
