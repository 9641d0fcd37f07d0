package mail

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/askly/accounts-api/internal/core/ports"
)

// LogMailer writes verification links to the log instead of sending them.
// Used when no SMTP host is configured.
type LogMailer struct {
	verifyURL string
	log       zerolog.Logger
}

func NewLogMailer(verifyURL string, log zerolog.Logger) *LogMailer {
	return &LogMailer{verifyURL: verifyURL, log: log}
}

func (m *LogMailer) SendVerification(_ context.Context, msg ports.VerificationEmail) error {
	link, err := VerificationLink(m.verifyURL, msg.UserID, msg.Token)
	if err != nil {
		return err
	}
	m.log.Info().
		Str("user_id", msg.UserID).
		Str("email", msg.Email).
		Str("link", link).
		Msg("verification email (smtp disabled)")
	return nil
}
