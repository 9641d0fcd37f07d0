package mail

import (
	"fmt"
	"net/url"
)

// VerificationLink appends the user id and token to base as query parameters.
func VerificationLink(base, userID, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse verify url: %w", err)
	}
	q := u.Query()
	q.Set("id", userID)
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func verificationBody(username, link string) string {
	return fmt.Sprintf(
		"Hi %s,\n\nPlease confirm your email address by opening the link below:\n%s\n\nIf you did not create an account you can ignore this message.",
		username, link,
	)
}
