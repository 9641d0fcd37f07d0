package domain

import "time"

// BanStatus records whether a user is banned and by which admin.
type BanStatus struct {
	IsBanned bool       `json:"is_banned"`
	BannedBy string     `json:"banned_by,omitempty"`
	BanDate  *time.Time `json:"ban_date,omitempty"`
}

// Settings are the user-controlled visibility flags of a public profile.
type Settings struct {
	IsAskable  bool `json:"is_askable"`
	IsViewable bool `json:"is_viewable"`
}

// DefaultSettings is applied to every newly created user.
func DefaultSettings() Settings {
	return Settings{IsAskable: true, IsViewable: true}
}

// User models a regular account.
type User struct {
	ID                     string    `json:"id"`
	Username               string    `json:"username"`
	Email                  string    `json:"email"`
	PasswordHash           string    `json:"-"`
	ProfileImgURL          string    `json:"profile_img_url,omitempty"`
	BanStatus              BanStatus `json:"ban_status"`
	Settings               Settings  `json:"settings"`
	IsEmailConfirmed       bool      `json:"is_email_confirmed"`
	EmailConfirmationToken string    `json:"-"`
	// VerificationWindowed is set once an expiry window was opened for the
	// current token. Tokens without one never expire.
	VerificationWindowed   bool      `json:"-"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// PubliclyVisible reports whether the profile may be served to anonymous callers.
func (u *User) PubliclyVisible() bool {
	return !u.BanStatus.IsBanned && u.Settings.IsViewable
}

// Profile returns the public projection of the user.
func (u *User) Profile() PublicProfile {
	return PublicProfile{
		Username:      u.Username,
		ProfileImgURL: u.ProfileImgURL,
		IsAskable:     u.Settings.IsAskable,
	}
}

// PublicProfile is what anyone may see about a visible user.
type PublicProfile struct {
	Username      string `json:"username"`
	ProfileImgURL string `json:"profile_img_url"`
	IsAskable     bool   `json:"is_askable"`
}

// UserUpdate is a partial update applied atomically by the store.
// Nil fields are left untouched.
type UserUpdate struct {
	Username               *string
	Email                  *string
	PasswordHash           *string
	ProfileImgURL          *string
	IsAskable              *bool
	IsViewable             *bool
	BanStatus              *BanStatus
	IsEmailConfirmed       *bool
	EmailConfirmationToken *string
	VerificationWindowed   *bool
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.Email == nil && u.PasswordHash == nil &&
		u.ProfileImgURL == nil && u.IsAskable == nil && u.IsViewable == nil &&
		u.BanStatus == nil && u.IsEmailConfirmed == nil && u.EmailConfirmationToken == nil &&
		u.VerificationWindowed == nil
}
