package auth

import "errors"

type Kind string

const (
	KindEmailAlreadyRegistered   Kind = "email_already_registered"
	KindUsernameAlreadyTaken     Kind = "username_already_taken"
	KindIncorrectEmailOrPassword Kind = "incorrect_email_or_password"
	KindEmailNotVerified         Kind = "email_not_verified"
	KindUserNotFound             Kind = "user_not_found"
	KindOldPasswordIncorrect     Kind = "old_password_incorrect"
	KindPasswordsDidNotMatch     Kind = "passwords_did_not_match"
	KindAuthFailed               Kind = "auth_failed"
)

// Error is a domain failure surfaced to callers. Two errors match under
// errors.Is when their kinds are equal.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrEmailAlreadyRegistered   = &Error{Kind: KindEmailAlreadyRegistered, Message: "email already registered"}
	ErrUsernameAlreadyTaken     = &Error{Kind: KindUsernameAlreadyTaken, Message: "username already taken"}
	ErrIncorrectEmailOrPassword = &Error{Kind: KindIncorrectEmailOrPassword, Message: "incorrect email or password"}
	ErrEmailNotVerified         = &Error{Kind: KindEmailNotVerified, Message: "email is not verified"}
	ErrUserNotFound             = &Error{Kind: KindUserNotFound, Message: "user not found"}
	ErrOldPasswordIncorrect     = &Error{Kind: KindOldPasswordIncorrect, Message: "old password is incorrect"}
	ErrPasswordsDidNotMatch     = &Error{Kind: KindPasswordsDidNotMatch, Message: "passwords did not match"}
	ErrAuthFailed               = &Error{Kind: KindAuthFailed, Message: "could not validate credentials"}
)

// KindOf reports the domain kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
