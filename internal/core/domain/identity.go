package domain

// SubjectKind separates the admin and user namespaces. The same username may
// exist in both.
type SubjectKind string

const (
	KindAdmin SubjectKind = "admin"
	KindUser  SubjectKind = "user"
)

// Valid reports whether k is a known kind.
func (k SubjectKind) Valid() bool {
	return k == KindAdmin || k == KindUser
}

// Claims is the identity carried by a signed token.
type Claims struct {
	Kind      SubjectKind
	SubjectID string
}
