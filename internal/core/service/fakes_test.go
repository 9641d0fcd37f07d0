package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/askly/accounts-api/internal/core/domain"
	"github.com/askly/accounts-api/internal/core/ports"
)

// --- User repository ---

type memUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int

	// updateErr fails every Update when set.
	updateErr error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *memUserRepo) ValidID(id string) bool {
	if len(id) != 24 {
		return false
	}
	for _, c := range id {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}

func (r *memUserRepo) List(context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// conflict reports a uniqueness violation against every record but skipID.
func (r *memUserRepo) conflict(username, email, skipID string) error {
	for id, u := range r.users {
		if id == skipID {
			continue
		}
		if username != "" && u.Username == username {
			return domain.ErrUsernameInUse
		}
		if email != "" && u.Email == email {
			return domain.ErrEmailInUse
		}
	}
	return nil
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conflict(user.Username, user.Email, ""); err != nil {
		return err
	}
	r.nextID++
	user.ID = fmt.Sprintf("%024x", r.nextID)
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *memUserRepo) Update(_ context.Context, id string, upd domain.UserUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	var username, email string
	if upd.Username != nil {
		username = *upd.Username
	}
	if upd.Email != nil {
		email = *upd.Email
	}
	if err := r.conflict(username, email, id); err != nil {
		return nil, err
	}

	next := cloneUser(u)
	if upd.Username != nil {
		next.Username = *upd.Username
	}
	if upd.Email != nil {
		next.Email = *upd.Email
	}
	if upd.PasswordHash != nil {
		next.PasswordHash = *upd.PasswordHash
	}
	if upd.ProfileImgURL != nil {
		next.ProfileImgURL = *upd.ProfileImgURL
	}
	if upd.IsAskable != nil {
		next.Settings.IsAskable = *upd.IsAskable
	}
	if upd.IsViewable != nil {
		next.Settings.IsViewable = *upd.IsViewable
	}
	if upd.BanStatus != nil {
		next.BanStatus = *upd.BanStatus
	}
	if upd.IsEmailConfirmed != nil {
		next.IsEmailConfirmed = *upd.IsEmailConfirmed
	}
	if upd.EmailConfirmationToken != nil {
		next.EmailConfirmationToken = *upd.EmailConfirmationToken
	}
	if upd.VerificationWindowed != nil {
		next.VerificationWindowed = *upd.VerificationWindowed
	}
	r.users[id] = next
	return cloneUser(next), nil
}

func (r *memUserRepo) ConfirmEmail(_ context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.IsEmailConfirmed || u.EmailConfirmationToken != token {
		return domain.ErrVerificationMismatch
	}
	u.IsEmailConfirmed = true
	u.EmailConfirmationToken = ""
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	delete(r.users, id)
	return u, nil
}

// --- Admin repository ---

type memAdminRepo struct {
	admins map[string]*domain.Admin
	err    error
}

func newMemAdminRepo(admins ...*domain.Admin) *memAdminRepo {
	r := &memAdminRepo{admins: make(map[string]*domain.Admin)}
	for _, a := range admins {
		r.admins[a.ID] = a
	}
	return r
}

func (r *memAdminRepo) ValidID(id string) bool { return (&memUserRepo{}).ValidID(id) }

func (r *memAdminRepo) FindByID(_ context.Context, id string) (*domain.Admin, error) {
	if r.err != nil {
		return nil, r.err
	}
	a, ok := r.admins[id]
	if !ok {
		return nil, domain.ErrAdminNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *memAdminRepo) FindByUsername(_ context.Context, username string) (*domain.Admin, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, a := range r.admins {
		if a.Username == username {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrAdminNotFound
}

func (r *memAdminRepo) Create(_ context.Context, admin *domain.Admin) error {
	for _, a := range r.admins {
		if a.Username == admin.Username {
			return domain.ErrUsernameInUse
		}
	}
	admin.ID = fmt.Sprintf("%024x", 0xa000+len(r.admins))
	clone := *admin
	r.admins[admin.ID] = &clone
	return nil
}

// --- Security ---

// plainHasher prefixes passwords instead of hashing them and counts compares.
type plainHasher struct {
	compares int
}

func (h *plainHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (h *plainHasher) Compare(hash, password string) error {
	h.compares++
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type stubIssuer struct {
	issued []domain.Claims
}

func (s *stubIssuer) Issue(claims domain.Claims) (string, error) {
	s.issued = append(s.issued, claims)
	return "token-" + string(claims.Kind) + "-" + claims.SubjectID, nil
}

// seqTokens hands out tok1, tok2, ...
type seqTokens struct {
	n int
}

func (s *seqTokens) NewEmailVerificationToken() string {
	s.n++
	return fmt.Sprintf("tok%d", s.n)
}

// --- Verification ---

type fakeWindow struct {
	open   map[string]time.Duration
	err    error
	closed []string
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{open: make(map[string]time.Duration)}
}

func (w *fakeWindow) Open(_ context.Context, userID string, ttl time.Duration) error {
	if w.err != nil {
		return w.err
	}
	w.open[userID] = ttl
	return nil
}

func (w *fakeWindow) IsOpen(_ context.Context, userID string) (bool, error) {
	if w.err != nil {
		return false, w.err
	}
	_, ok := w.open[userID]
	return ok, nil
}

func (w *fakeWindow) Close(_ context.Context, userID string) error {
	delete(w.open, userID)
	w.closed = append(w.closed, userID)
	return nil
}

// expire simulates the TTL running out.
func (w *fakeWindow) expire(userID string) {
	delete(w.open, userID)
}

type recordingNotifier struct {
	sent []ports.VerificationEmail
}

func (n *recordingNotifier) Notify(msg ports.VerificationEmail) {
	n.sent = append(n.sent, msg)
}
