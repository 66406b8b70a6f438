package user

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/productfruits/academy/core"
)

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Statuses
const (
	StatusActive   = "active"
	StatusInvited  = "invited"
	StatusInactive = "inactive"
)

var AllRoles = []string{RoleUser, RoleAdmin}

// Permissions is the fixed permission record attached to every user.
// The three flags are closed: no open permission maps.
type Permissions struct {
	CanAccessCourses        bool `json:"canAccessCourses"`
	CanTakeExams            bool `json:"canTakeExams"`
	CanDownloadCertificates bool `json:"canDownloadCertificates"`
}

// DefaultPermissions grants course access only.
func DefaultPermissions() Permissions {
	return Permissions{CanAccessCourses: true}
}

type SocialMedia struct {
	LinkedIn  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

type User struct {
	ID             string      `json:"id"`
	Email          string      `json:"email"`
	FirstName      string      `json:"firstName"`
	LastName       string      `json:"lastName"`
	Username       string      `json:"username,omitempty"`
	Company        string      `json:"company,omitempty"`
	Phone          string      `json:"phone,omitempty"`
	Title          string      `json:"title,omitempty"`
	Avatar         string      `json:"avatar,omitempty"`
	Role           string      `json:"role"`
	Status         string      `json:"status"`
	Permissions    Permissions `json:"permissions"`
	SocialMedia    SocialMedia `json:"socialMedia,omitempty"`
	InvitationCode string      `json:"-"`
	PasswordHash   []byte      `json:"-"`
	CreatedAt      time.Time   `json:"createdAt"` // UTC
	UpdatedAt      time.Time   `json:"updatedAt"` // UTC
	LastLogin      time.Time   `json:"lastLogin,omitempty"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool  { return u.Role == RoleAdmin }
func (u *User) IsActive() bool { return u.Status == StatusActive }

func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Invitation is the single-use record backing an invited user's signup link.
type Invitation struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (inv Invitation) IsExpired() bool {
	return core.NowFunc().After(inv.ExpiresAt)
}

// InviteUser contains information needed to invite a new User.
type InviteUser struct {
	Email       string      `json:"email" validate:"required,email"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Username    string      `json:"username" validate:"omitempty,min=6,alphanum_"`
	Company     string      `json:"company"`
	Phone       string      `json:"phone"`
	Role        string      `json:"role" validate:"required,oneof=user admin"`
	Permissions Permissions `json:"permissions"`
}

func (iu *InviteUser) Validate(ctx context.Context, svc *Service) error {
	iu.Email = core.CleanString(iu.Email, true /* lower */)
	iu.FirstName = core.CleanString(iu.FirstName)
	iu.LastName = core.CleanString(iu.LastName)
	iu.Username = core.CleanString(iu.Username, true /* lower */)

	if err := core.Validate.Struct(iu); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, iu.Email)
}

// AcceptInvitation activates an invited account: sets the first password and
// consumes the invitation code.
type AcceptInvitation struct {
	Email           string `json:"email" validate:"required,email"`
	Code            string `json:"invitationCode" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (ai *AcceptInvitation) Validate() error {
	ai.Email = core.CleanString(ai.Email, true /* lower */)
	ai.Code = core.CleanString(ai.Code)
	return core.Validate.Struct(ai)
}

// UpdateUser defines what information may be provided to modify an existing
// User. Role, Status and Permissions may only be set by admins; the API
// layer enforces that.
type UpdateUser struct {
	FirstName       string       `json:"firstName"`
	LastName        string       `json:"lastName"`
	Username        string       `json:"username" validate:"omitempty,min=6,alphanum_"`
	Company         string       `json:"company"`
	Phone           string       `json:"phone"`
	Title           string       `json:"title"`
	Avatar          string       `json:"avatar"`
	SocialMedia     *SocialMedia `json:"socialMedia"`
	Role            string       `json:"role" validate:"omitempty,oneof=user admin"`
	Status          string       `json:"status" validate:"omitempty,oneof=active invited inactive"`
	Permissions     *Permissions `json:"permissions"`
	CurrentPassword string       `json:"currentPassword"`
	Password        string       `json:"password" validate:"omitempty"`
	PasswordConfirm string       `json:"passwordConfirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User) error {
	uu.FirstName = core.CleanString(uu.FirstName)
	uu.LastName = core.CleanString(uu.LastName)
	uu.Username = core.CleanString(uu.Username, true /* lower */)

	if err := core.Validate.Struct(uu); err != nil {
		return err
	}
	if uu.Password != "" {
		return validatePassword(uu.Password, origUsr.Email, uu.Username, uu.FirstName, uu.LastName)
	}
	return nil
}
