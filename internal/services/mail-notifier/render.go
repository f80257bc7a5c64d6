package notifier

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/NordCoder/Gatekeeper/internal/domain/mail"
)

// Links holds URL templates; "{token}" is replaced with the mail token.
type Links struct {
	VerifyURL string
	ResetURL  string
}

func (l Links) link(tmpl, token string) string {
	return strings.ReplaceAll(tmpl, "{token}", url.QueryEscape(token))
}

// Render builds the subject and plain-text body for ev.
func Render(ev mail.Event, links Links) (string, string, error) {
	name := ev.Username
	if name == "" {
		name = ev.Email
	}
	switch ev.Type {
	case mail.TypeVerify:
		return "Confirm your email", fmt.Sprintf(
			"Hello, %s!\n\nConfirm your email address by following the link below:\n\n%s\n\nThe link is valid for 2 hours.\n",
			name, links.link(links.VerifyURL, ev.Token),
		), nil
	case mail.TypePasswordReset:
		return "Password reset", fmt.Sprintf(
			"Hello, %s!\n\nSomeone asked to reset the password of your account. Use the link below to set a new one:\n\n%s\n\nThe link is valid for 2 hours. If it was not you, ignore this email.\n",
			name, links.link(links.ResetURL, ev.Token),
		), nil
	}
	return "", "", fmt.Errorf("unknown mail type %q", ev.Type)
}
