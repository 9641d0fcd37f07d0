package mongo

import (
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/askly/accounts-api/internal/core/domain"
)

// translateDuplicateKey maps a unique index violation on the users collection
// to the matching domain conflict. It returns nil for any other error.
func translateDuplicateKey(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if strings.Contains(err.Error(), idxUsersEmail) {
		return domain.ErrEmailInUse
	}
	return domain.ErrUsernameInUse
}
