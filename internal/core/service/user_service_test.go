package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/askly/accounts-api/internal/core/domain"
	"github.com/askly/accounts-api/internal/core/ports"
	"github.com/askly/accounts-api/internal/infrastructure/security"
)

type userFixture struct {
	svc      *UserService
	repo     *memUserRepo
	window   *fakeWindow
	notifier *recordingNotifier
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	f := &userFixture{
		repo:     newMemUserRepo(),
		window:   newFakeWindow(),
		notifier: &recordingNotifier{},
	}
	f.svc = NewUserService(f.repo, &plainHasher{}, &seqTokens{}, f.window, f.notifier,
		UserServiceConfig{VerificationTTL: 48 * time.Hour}, zerolog.Nop())
	return f
}

var (
	superAdmin = domain.Caller{Kind: domain.KindAdmin, ID: "00000000000000000000a001", Permissions: domain.PermSuperAdmin}
	plainAdmin = domain.Caller{Kind: domain.KindAdmin, ID: "00000000000000000000a002"}
)

func boolPtr(b bool) *bool { return &b }

func (f *userFixture) register(t *testing.T, username, email string) *domain.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), ports.CreateUserInput{Username: username, Password: "pw1", Email: email})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func TestUserService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)

	alice := f.register(t, "alice", "a@x.io")
	if alice.ID == "" {
		t.Fatal("expected an id")
	}
	if alice.IsEmailConfirmed {
		t.Error("new users start unconfirmed")
	}
	if alice.Settings != domain.DefaultSettings() {
		t.Errorf("settings = %+v", alice.Settings)
	}
	if alice.PasswordHash != "hashed:pw1" {
		t.Errorf("password not hashed: %q", alice.PasswordHash)
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].Token != "tok1" || f.notifier.sent[0].Email != "a@x.io" {
		t.Fatalf("expected one verification email with tok1, got %+v", f.notifier.sent)
	}
	if ttl, ok := f.window.open[alice.ID]; !ok || ttl != 48*time.Hour {
		t.Errorf("verification window not opened: %v %v", ok, ttl)
	}

	if err := f.svc.VerifyEmail(ctx, alice.ID, "tok1"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := f.svc.VerifyEmail(ctx, alice.ID, "tok1"); !errors.Is(err, domain.ErrEmailAlreadyConfirmed) {
		t.Fatalf("second verify: expected ErrEmailAlreadyConfirmed, got %v", err)
	}

	self := domain.UserCaller(alice)
	updated, err := f.svc.Update(ctx, self, alice.ID, ports.UpdateUserInput{
		Settings: &ports.SettingsInput{IsAskable: boolPtr(false)},
	})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if updated.Settings.IsAskable || !updated.Settings.IsViewable {
		t.Errorf("settings = %+v, want askable=false viewable=true", updated.Settings)
	}

	profile, err := f.svc.Profile(ctx, "alice")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.IsAskable {
		t.Error("profile should reflect is_askable=false")
	}

	banned, err := f.svc.Update(ctx, superAdmin, alice.ID, ports.UpdateUserInput{BanStatus: &ports.BanStatusInput{}})
	if err != nil {
		t.Fatalf("ban: %v", err)
	}
	if !banned.BanStatus.IsBanned || banned.BanStatus.BannedBy != superAdmin.ID || banned.BanStatus.BanDate == nil {
		t.Errorf("ban status = %+v", banned.BanStatus)
	}
	if _, err := f.svc.Profile(ctx, "alice"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("banned profile: expected ErrNotFound, got %v", err)
	}

	unbanned, err := f.svc.Update(ctx, superAdmin, alice.ID, ports.UpdateUserInput{BanStatus: &ports.BanStatusInput{IsBanned: boolPtr(false)}})
	if err != nil {
		t.Fatalf("unban: %v", err)
	}
	if unbanned.BanStatus != (domain.BanStatus{}) {
		t.Errorf("unban should clear ban metadata, got %+v", unbanned.BanStatus)
	}

	deleted, err := f.svc.Delete(ctx, self, alice.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.Username != "alice" {
		t.Errorf("deleted = %+v", deleted)
	}
	if _, err := f.svc.Get(ctx, superAdmin, alice.ID); !errors.Is(err, domain.ErrInvalidID) {
		t.Errorf("get after delete: expected ErrInvalidID, got %v", err)
	}
}

func TestUserService_Register_Conflicts(t *testing.T) {
	f := newUserFixture(t)
	f.register(t, "alice", "a@x.io")

	_, err := f.svc.Register(context.Background(), ports.CreateUserInput{Username: "alice", Password: "pw", Email: "other@x.io"})
	if !errors.Is(err, domain.ErrUsernameInUse) {
		t.Errorf("duplicate username: expected ErrUsernameInUse, got %v", err)
	}
	_, err = f.svc.Register(context.Background(), ports.CreateUserInput{Username: "bob", Password: "pw", Email: "a@x.io"})
	if !errors.Is(err, domain.ErrEmailInUse) {
		t.Errorf("duplicate email: expected ErrEmailInUse, got %v", err)
	}
	if len(f.notifier.sent) != 1 {
		t.Errorf("failed registrations must not send mail, sent %d", len(f.notifier.sent))
	}
}

func TestUserService_Authorization(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	alice := f.register(t, "alice", "a@x.io")
	bob := f.register(t, "bob", "b@x.io")
	asAlice := domain.UserCaller(alice)

	if _, err := f.svc.List(ctx, asAlice); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("user list: expected ErrUnauthorized, got %v", err)
	}
	if _, err := f.svc.List(ctx, plainAdmin); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("admin without permissions list: expected ErrUnauthorized, got %v", err)
	}
	users, err := f.svc.List(ctx, superAdmin)
	if err != nil || len(users) != 2 {
		t.Errorf("super admin list: %d users, err %v", len(users), err)
	}

	if _, err := f.svc.Get(ctx, asAlice, bob.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("read other: expected ErrUnauthorized, got %v", err)
	}
	if _, err := f.svc.Update(ctx, asAlice, bob.ID, ports.UpdateUserInput{Username: "mallory"}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("update other: expected ErrUnauthorized, got %v", err)
	}
	if _, err := f.svc.Update(ctx, asAlice, alice.ID, ports.UpdateUserInput{BanStatus: &ports.BanStatusInput{IsBanned: boolPtr(false)}}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("self unban: expected ErrUnauthorized, got %v", err)
	}
	if _, err := f.svc.Delete(ctx, asAlice, bob.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("delete other: expected ErrUnauthorized, got %v", err)
	}
	if _, err := f.svc.Create(ctx, asAlice, ports.CreateUserInput{Username: "c", Password: "p", Email: "c@x.io"}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("user create: expected ErrUnauthorized, got %v", err)
	}

	created, err := f.svc.Create(ctx, superAdmin, ports.CreateUserInput{Username: "carol", Password: "p", Email: "c@x.io"})
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if created.Username != "carol" {
		t.Errorf("created = %+v", created)
	}

	// Unauthorized callers must not learn whether the target exists.
	if _, err := f.svc.Get(ctx, asAlice, "00000000000000000000ffff"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("read missing other: expected ErrUnauthorized, got %v", err)
	}
}

func TestUserService_InvalidID(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	missing := "00000000000000000000ffff"

	tests := []struct {
		name string
		call func(id string) error
	}{
		{"get", func(id string) error { _, err := f.svc.Get(ctx, superAdmin, id); return err }},
		{"update", func(id string) error {
			_, err := f.svc.Update(ctx, superAdmin, id, ports.UpdateUserInput{Username: "x"})
			return err
		}},
		{"delete", func(id string) error { _, err := f.svc.Delete(ctx, superAdmin, id); return err }},
		{"verify", func(id string) error { return f.svc.VerifyEmail(ctx, id, "tok") }},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/malformed", func(t *testing.T) {
			if err := tt.call("zzz"); !errors.Is(err, domain.ErrInvalidID) {
				t.Errorf("expected ErrInvalidID, got %v", err)
			}
		})
		t.Run(tt.name+"/missing", func(t *testing.T) {
			if err := tt.call(missing); !errors.Is(err, domain.ErrInvalidID) {
				t.Errorf("expected ErrInvalidID, got %v", err)
			}
		})
	}
}

func TestUserService_Profile(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	alice := f.register(t, "alice", "a@x.io")

	if _, err := f.svc.Profile(ctx, "nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown: expected ErrNotFound, got %v", err)
	}

	_, err := f.svc.Update(ctx, domain.UserCaller(alice), alice.ID, ports.UpdateUserInput{
		Settings: &ports.SettingsInput{IsViewable: boolPtr(false)},
	})
	if err != nil {
		t.Fatalf("hide profile: %v", err)
	}
	if _, err := f.svc.Profile(ctx, "alice"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("hidden: expected ErrNotFound, got %v", err)
	}
}

func TestUserService_EmailChangeRestartsVerification(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	alice := f.register(t, "alice", "a@x.io")
	if err := f.svc.VerifyEmail(ctx, alice.ID, "tok1"); err != nil {
		t.Fatalf("verify: %v", err)
	}

	updated, err := f.svc.Update(ctx, domain.UserCaller(alice), alice.ID, ports.UpdateUserInput{Email: "new@x.io"})
	if err != nil {
		t.Fatalf("update email: %v", err)
	}
	if updated.Email != "new@x.io" || updated.IsEmailConfirmed {
		t.Errorf("updated = %+v", updated)
	}
	if len(f.notifier.sent) != 2 {
		t.Fatalf("expected a second verification email, got %d", len(f.notifier.sent))
	}
	last := f.notifier.sent[1]
	if last.Email != "new@x.io" || last.Token != "tok2" {
		t.Errorf("verification email = %+v", last)
	}

	if err := f.svc.VerifyEmail(ctx, alice.ID, "tok1"); !errors.Is(err, domain.ErrVerificationMismatch) {
		t.Errorf("old token: expected ErrVerificationMismatch, got %v", err)
	}
	if err := f.svc.VerifyEmail(ctx, alice.ID, "tok2"); err != nil {
		t.Errorf("new token: %v", err)
	}
}

func TestUserService_UpdateWithoutChanges(t *testing.T) {
	f := newUserFixture(t)
	alice := f.register(t, "alice", "a@x.io")

	got, err := f.svc.Update(context.Background(), domain.UserCaller(alice), alice.ID, ports.UpdateUserInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != alice.ID || got.Username != "alice" {
		t.Errorf("got %+v", got)
	}
}

func TestUserService_UpdateUsernameConflict(t *testing.T) {
	f := newUserFixture(t)
	alice := f.register(t, "alice", "a@x.io")
	f.register(t, "bob", "b@x.io")

	_, err := f.svc.Update(context.Background(), domain.UserCaller(alice), alice.ID, ports.UpdateUserInput{Username: "bob"})
	if !errors.Is(err, domain.ErrUsernameInUse) {
		t.Errorf("expected ErrUsernameInUse, got %v", err)
	}
}

func TestUserService_VerifyEmail_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong token", func(t *testing.T) {
		f := newUserFixture(t)
		alice := f.register(t, "alice", "a@x.io")
		if err := f.svc.VerifyEmail(ctx, alice.ID, "bogus"); !errors.Is(err, domain.ErrVerificationMismatch) {
			t.Errorf("expected ErrVerificationMismatch, got %v", err)
		}
	})

	t.Run("expired window", func(t *testing.T) {
		f := newUserFixture(t)
		alice := f.register(t, "alice", "a@x.io")
		f.window.expire(alice.ID)
		if err := f.svc.VerifyEmail(ctx, alice.ID, "tok1"); !errors.Is(err, domain.ErrVerificationMismatch) {
			t.Errorf("expected ErrVerificationMismatch, got %v", err)
		}
	})

	t.Run("window store down accepts token", func(t *testing.T) {
		f := newUserFixture(t)
		alice := f.register(t, "alice", "a@x.io")
		f.window.err = errors.New("redis down")
		if err := f.svc.VerifyEmail(ctx, alice.ID, "tok1"); err != nil {
			t.Errorf("expected success, got %v", err)
		}
	})

	t.Run("expiry disabled", func(t *testing.T) {
		f := newUserFixture(t)
		f.svc.cfg.VerificationTTL = 0
		alice := f.register(t, "alice", "a@x.io")
		if _, ok := f.window.open[alice.ID]; ok {
			t.Fatal("window should not be opened when expiry is disabled")
		}
		if err := f.svc.VerifyEmail(ctx, alice.ID, "tok1"); err != nil {
			t.Errorf("expected success, got %v", err)
		}
	})
}

func TestUserService_VerifyEmail_ClosesWindow(t *testing.T) {
	f := newUserFixture(t)
	alice := f.register(t, "alice", "a@x.io")

	if err := f.svc.VerifyEmail(context.Background(), alice.ID, "tok1"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, ok := f.window.open[alice.ID]; ok {
		t.Error("window should be closed after confirmation")
	}
}

func TestUserService_VerifyEmail_WindowOpenFailed(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)

	f.window.err = errors.New("redis down")
	alice := f.register(t, "alice", "a@x.io")
	f.window.err = nil

	if alice.VerificationWindowed {
		t.Fatal("no window was opened, expiry must not be enforced")
	}
	if err := f.svc.VerifyEmail(ctx, alice.ID, alice.EmailConfirmationToken); err != nil {
		t.Fatalf("expected the token to be accepted, got %v", err)
	}
}

func TestUserService_Register_WindowRecordFails(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	f.repo.updateErr = errors.New("write timeout")

	alice := f.register(t, "alice", "a@x.io")

	stored, err := f.repo.FindByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if stored.EmailConfirmationToken != "tok1" {
		t.Fatalf("token must be written with the user, got %q", stored.EmailConfirmationToken)
	}
	if stored.VerificationWindowed {
		t.Fatal("window flag must stay unset when recording it failed")
	}
	if len(f.notifier.sent) != 1 {
		t.Fatalf("expected a verification email, got %d", len(f.notifier.sent))
	}

	// Redis expiring the key does not matter: the window was never recorded.
	f.window.expire(alice.ID)
	if err := f.svc.VerifyEmail(ctx, alice.ID, "tok1"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestUserService_PasswordTooLong(t *testing.T) {
	ctx := context.Background()
	repo := newMemUserRepo()
	svc := NewUserService(repo, security.NewBcryptHasher(4), &seqTokens{}, nil, nil, UserServiceConfig{}, zerolog.Nop())
	long := strings.Repeat("a", 73)

	_, err := svc.Register(ctx, ports.CreateUserInput{Username: "alice", Password: long, Email: "a@x.io"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("register: expected ErrValidation, got %v", err)
	}
	if users, _ := repo.List(ctx); len(users) != 0 {
		t.Fatalf("no user should be stored, got %d", len(users))
	}

	alice, err := svc.Register(ctx, ports.CreateUserInput{Username: "alice", Password: "pw1", Email: "a@x.io"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err = svc.Update(ctx, domain.UserCaller(alice), alice.ID, ports.UpdateUserInput{Password: long})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("update: expected ErrValidation, got %v", err)
	}
}
