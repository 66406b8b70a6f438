package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/productfruits/academy/core"
)

var (
	// errors
	ErrNotFound          = errors.New("user not found")
	ErrEmailExists       = errors.New("a user with this email already exists")
	ErrInvalidInvitation = errors.New("invalid invitation")
	ErrInvitationExpired = errors.New("invitation has expired")
	ErrWrongPassword     = errors.New("current password is incorrect")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUser(ctx context.Context, id string) error

		CreateInvitation(ctx context.Context, inv Invitation) error
		GetInvitation(ctx context.Context, email, code string) (Invitation, error)
		DeleteInvitation(ctx context.Context, email, code string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, conf: conf}
}

func (svc *Service) checkUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewConflictError(err)
		}
		return err
	}
	return nil
}

// Invite creates a new User with status "invited" and a single-use
// invitation code, stores the matching Invitation and emails the signup
// link. The account stays unusable until the invitation is accepted.
func (svc *Service) Invite(ctx context.Context, iu InviteUser) (User, error) {
	now := core.NowFunc().UTC()
	usr := User{
		ID:             uuid.New().String(),
		Email:          iu.Email,
		FirstName:      iu.FirstName,
		LastName:       iu.LastName,
		Username:       iu.Username,
		Company:        iu.Company,
		Phone:          iu.Phone,
		Role:           iu.Role,
		Status:         StatusInvited,
		Permissions:    iu.Permissions,
		InvitationCode: generateInvitationCode(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}

	inv := Invitation{
		Email:     usr.Email,
		Code:      usr.InvitationCode,
		UserID:    usr.ID,
		ExpiresAt: now.Add(svc.conf.InvitationExpirationDelta),
	}
	if err := svc.repo.CreateInvitation(ctx, inv); err != nil {
		return User{}, err
	}

	svc.sendInvitationEmail(usr, inv)
	return usr, nil
}

// AcceptInvitation activates an invited account: the email+code pair must
// match a stored, unexpired invitation; the first password is set, status
// flips to active and the code is cleared.
func (svc *Service) AcceptInvitation(ctx context.Context, ai AcceptInvitation) (User, error) {
	inv, err := svc.repo.GetInvitation(ctx, ai.Email, ai.Code)
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrInvalidInvitation
		}
		return User{}, err
	}
	if inv.IsExpired() {
		return User{}, ErrInvitationExpired
	}

	usr, err := svc.repo.GetUserByEmail(ctx, ai.Email)
	if err != nil {
		return User{}, err
	}
	if usr.Status != StatusInvited || usr.InvitationCode != ai.Code {
		return User{}, ErrInvalidInvitation
	}

	if err := validatePassword(ai.Password, usr.Email, usr.Username, usr.FirstName, usr.LastName); err != nil {
		return User{}, err
	}
	if err := usr.SetPassword(ai.Password); err != nil {
		return User{}, err
	}
	usr.Status = StatusActive
	usr.InvitationCode = ""
	usr.UpdatedAt = core.NowFunc().UTC()

	usr, err = svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}
	if err := svc.repo.DeleteInvitation(ctx, inv.Email, inv.Code); err != nil {
		return User{}, err
	}
	return usr, nil
}

// Authenticate matches an active user's email and password.
// Any failure is reported as ErrNotFound so callers cannot probe accounts.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return User{}, err
	}
	if !usr.IsActive() {
		return User{}, ErrNotFound
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return User{}, ErrNotFound
	}
	return usr, nil
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = core.NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// Update applies the set fields of uu to the stored user. A password change
// on one's own account requires the current password.
func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser, self bool) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if uu.FirstName != "" {
		usr.FirstName = uu.FirstName
	}
	if uu.LastName != "" {
		usr.LastName = uu.LastName
	}
	if uu.Username != "" {
		usr.Username = uu.Username
	}
	if uu.Company != "" {
		usr.Company = uu.Company
	}
	if uu.Phone != "" {
		usr.Phone = uu.Phone
	}
	if uu.Title != "" {
		usr.Title = uu.Title
	}
	if uu.Avatar != "" {
		usr.Avatar = uu.Avatar
	}
	if uu.SocialMedia != nil {
		usr.SocialMedia = *uu.SocialMedia
	}
	if uu.Role != "" {
		usr.Role = uu.Role
	}
	if uu.Status != "" {
		usr.Status = uu.Status
	}
	if uu.Permissions != nil {
		usr.Permissions = *uu.Permissions
	}
	if uu.Password != "" {
		if self {
			if err := usr.CheckPassword(uu.CurrentPassword); err != nil {
				return User{}, core.NewValidationError(ErrWrongPassword,
					core.FieldError{Field: "currentPassword", Error: ErrWrongPassword.Error()})
			}
		}
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	usr.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// ToggleStatus flips a user between active and inactive.
// Invited users stay invited until they accept their invitation.
func (svc *Service) ToggleStatus(ctx context.Context, id string) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	switch usr.Status {
	case StatusActive:
		usr.Status = StatusInactive
	case StatusInactive:
		usr.Status = StatusActive
	default:
		return usr, nil
	}
	usr.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteUser(ctx, id)
}

// InvitationLink builds the frontend signup URL for an invited user.
func (svc *Service) InvitationLink(usr User) string {
	params := url.Values{}
	params.Set("email", usr.Email)
	params.Set("code", usr.InvitationCode)
	return fmt.Sprintf("%s?invitation=%s", svc.conf.FrontendBaseURL, url.QueryEscape(params.Encode()))
}

func (svc *Service) sendInvitationEmail(usr User, inv Invitation) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      "You have been invited to Academy",
		TemplateName: "invitation",
		TemplateData: struct {
			Name      string
			Link      string
			ExpiresAt time.Time
		}{
			Name:      usr.FullName(),
			Link:      svc.InvitationLink(usr),
			ExpiresAt: inv.ExpiresAt,
		},
	})
}

// generateInvitationCode returns a short single-use code; the first uuid
// segment, matching the links the frontend already parses.
func generateInvitationCode() string {
	return strings.SplitN(uuid.New().String(), "-", 2)[0]
}
