package user_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productfruits/academy/core"
	"github.com/productfruits/academy/core/user"
	inmemdb "github.com/productfruits/academy/storage/database/inmem"
)

var ctx = context.Background()

func mockNow(t *testing.T, now time.Time) {
	core.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { core.NowFunc = time.Now })
}

// mailerMock captures outgoing messages instead of sending them.
type mailerMock struct {
	mu   sync.Mutex
	sent []*core.EmailMessage
}

func (m *mailerMock) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	m.sent = append(m.sent, messages...)
	m.mu.Unlock()
}

func setup(t *testing.T) (*user.Service, *mailerMock) {
	conf := &core.Config{
		FrontendBaseURL:           "https://academy.example.com",
		InvitationExpirationDelta: 7 * 24 * time.Hour,
	}
	mailer := new(mailerMock)
	svc := user.NewService(inmemdb.NewUserRepository(inmemdb.Open()), mailer, conf)
	return svc, mailer
}

func invite(t *testing.T, svc *user.Service) user.User {
	usr, err := svc.Invite(ctx, user.InviteUser{
		Email:       "ada@test.cd",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Role:        user.RoleUser,
		Permissions: user.DefaultPermissions(),
	})
	require.NoError(t, err)
	return usr
}

func TestService_Invite(t *testing.T) {
	mockNow(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, mailer := setup(t)

	usr := invite(t, svc)
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, user.StatusInvited, usr.Status)
	assert.NotEmpty(t, usr.InvitationCode)
	assert.Empty(t, usr.PasswordHash)

	if assert.Len(t, mailer.sent, 1) {
		msg := mailer.sent[0]
		assert.Equal(t, "ada@test.cd", msg.To[0].Address)
		assert.Equal(t, "invitation", msg.TemplateName)
	}

	// invited accounts cannot log in yet
	_, err := svc.Authenticate(ctx, "ada@test.cd", "anything")
	assert.Equal(t, user.ErrNotFound, err)

	// the email stays taken
	_, err = svc.Invite(ctx, user.InviteUser{Email: "ada@test.cd", Role: user.RoleUser})
	assert.Equal(t, user.ErrEmailExists, err)
}

func TestService_AcceptInvitation(t *testing.T) {
	mockNow(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, _ := setup(t)
	invited := invite(t, svc)

	t.Run("wrong code", func(t *testing.T) {
		_, err := svc.AcceptInvitation(ctx, user.AcceptInvitation{
			Email: invited.Email, Code: "bogus", Password: "s3cret-w0rd", PasswordConfirm: "s3cret-w0rd",
		})
		assert.Equal(t, user.ErrInvalidInvitation, err)
	})

	t.Run("weak password", func(t *testing.T) {
		for _, pwd := range []string{"short", "123456789", "lovelace"} {
			_, err := svc.AcceptInvitation(ctx, user.AcceptInvitation{
				Email: invited.Email, Code: invited.InvitationCode, Password: pwd, PasswordConfirm: pwd,
			})
			var vErr *core.ValidationError
			assert.ErrorAs(t, err, &vErr, pwd)
		}
	})

	t.Run("ok", func(t *testing.T) {
		usr, err := svc.AcceptInvitation(ctx, user.AcceptInvitation{
			Email: invited.Email, Code: invited.InvitationCode, Password: "s3cret-w0rd", PasswordConfirm: "s3cret-w0rd",
		})
		require.NoError(t, err)
		assert.Equal(t, user.StatusActive, usr.Status)
		assert.Empty(t, usr.InvitationCode)

		usr, err = svc.Authenticate(ctx, "ada@test.cd", "s3cret-w0rd")
		assert.NoError(t, err)
		assert.Equal(t, invited.ID, usr.ID)

		// the invitation is single-use
		_, err = svc.AcceptInvitation(ctx, user.AcceptInvitation{
			Email: invited.Email, Code: invited.InvitationCode, Password: "s3cret-w0rd", PasswordConfirm: "s3cret-w0rd",
		})
		assert.Equal(t, user.ErrInvalidInvitation, err)
	})
}

func TestService_AcceptInvitation_Expired(t *testing.T) {
	mockNow(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, _ := setup(t)
	invited := invite(t, svc)

	mockNow(t, time.Date(2026, 3, 18, 9, 0, 0, 0, time.UTC))
	_, err := svc.AcceptInvitation(ctx, user.AcceptInvitation{
		Email: invited.Email, Code: invited.InvitationCode, Password: "s3cret-w0rd", PasswordConfirm: "s3cret-w0rd",
	})
	assert.Equal(t, user.ErrInvitationExpired, err)
}

func TestService_Authenticate(t *testing.T) {
	mockNow(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, _ := setup(t)
	invited := invite(t, svc)
	_, err := svc.AcceptInvitation(ctx, user.AcceptInvitation{
		Email: invited.Email, Code: invited.InvitationCode, Password: "s3cret-w0rd", PasswordConfirm: "s3cret-w0rd",
	})
	require.NoError(t, err)

	// failures never reveal which check tripped
	_, err = svc.Authenticate(ctx, "ada@test.cd", "wrong-password")
	assert.Equal(t, user.ErrNotFound, err)
	_, err = svc.Authenticate(ctx, "nobody@test.cd", "s3cret-w0rd")
	assert.Equal(t, user.ErrNotFound, err)

	// email matching is case-insensitive
	usr, err := svc.Authenticate(ctx, " Ada@Test.CD ", "s3cret-w0rd")
	assert.NoError(t, err)

	// deactivated accounts are locked out
	_, err = svc.ToggleStatus(ctx, usr.ID)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "ada@test.cd", "s3cret-w0rd")
	assert.Equal(t, user.ErrNotFound, err)
}

func TestService_ToggleStatus(t *testing.T) {
	mockNow(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, _ := setup(t)
	invited := invite(t, svc)

	// invited users stay invited
	usr, err := svc.ToggleStatus(ctx, invited.ID)
	require.NoError(t, err)
	assert.Equal(t, user.StatusInvited, usr.Status)

	_, err = svc.AcceptInvitation(ctx, user.AcceptInvitation{
		Email: invited.Email, Code: invited.InvitationCode, Password: "s3cret-w0rd", PasswordConfirm: "s3cret-w0rd",
	})
	require.NoError(t, err)

	usr, err = svc.ToggleStatus(ctx, invited.ID)
	require.NoError(t, err)
	assert.Equal(t, user.StatusInactive, usr.Status)

	usr, err = svc.ToggleStatus(ctx, invited.ID)
	require.NoError(t, err)
	assert.Equal(t, user.StatusActive, usr.Status)
}

func TestService_Update(t *testing.T) {
	mockNow(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, _ := setup(t)
	invited := invite(t, svc)
	_, err := svc.AcceptInvitation(ctx, user.AcceptInvitation{
		Email: invited.Email, Code: invited.InvitationCode, Password: "s3cret-w0rd", PasswordConfirm: "s3cret-w0rd",
	})
	require.NoError(t, err)

	usr, err := svc.Update(ctx, invited.ID, user.UpdateUser{Company: "Initech", Title: "Engineer"}, true)
	require.NoError(t, err)
	assert.Equal(t, "Initech", usr.Company)
	assert.Equal(t, "Engineer", usr.Title)
	assert.Equal(t, "Ada", usr.FirstName, "unset fields are left alone")

	// changing one's own password requires the current one
	_, err = svc.Update(ctx, invited.ID, user.UpdateUser{
		CurrentPassword: "wrong", Password: "an0ther-w0rd", PasswordConfirm: "an0ther-w0rd",
	}, true)
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.Update(ctx, invited.ID, user.UpdateUser{
		CurrentPassword: "s3cret-w0rd", Password: "an0ther-w0rd", PasswordConfirm: "an0ther-w0rd",
	}, true)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "ada@test.cd", "an0ther-w0rd")
	assert.NoError(t, err)

	// admins reset passwords without the current one
	_, err = svc.Update(ctx, invited.ID, user.UpdateUser{
		Password: "adm1n-set-w0rd", PasswordConfirm: "adm1n-set-w0rd",
	}, false)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "ada@test.cd", "adm1n-set-w0rd")
	assert.NoError(t, err)

	_, err = svc.Update(ctx, "nope", user.UpdateUser{}, false)
	assert.Equal(t, user.ErrNotFound, err)
}

func TestService_InvitationLink(t *testing.T) {
	mockNow(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, _ := setup(t)
	usr := invite(t, svc)

	link := svc.InvitationLink(usr)
	assert.Contains(t, link, "https://academy.example.com?invitation=")
	assert.Contains(t, link, usr.InvitationCode)
}

func TestService_Delete(t *testing.T) {
	mockNow(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, _ := setup(t)
	usr := invite(t, svc)

	require.NoError(t, svc.Delete(ctx, usr.ID))
	_, err := svc.GetByID(ctx, usr.ID)
	assert.Equal(t, user.ErrNotFound, err)

	// deleting again is a no-op
	assert.NoError(t, svc.Delete(ctx, usr.ID))
}

// ctxCapturingRepo records the context CheckEmailUniqueness was called with.
type ctxCapturingRepo struct {
	user.Repository
	gotCtx context.Context
}

func (r *ctxCapturingRepo) CheckEmailUniqueness(ctx context.Context, email string, excl ...user.User) error {
	r.gotCtx = ctx
	return r.Repository.CheckEmailUniqueness(ctx, email, excl...)
}

func TestInviteUser_Validate_ThreadsContext(t *testing.T) {
	repo := &ctxCapturingRepo{Repository: inmemdb.NewUserRepository(inmemdb.Open())}
	svc := user.NewService(repo, new(mailerMock), &core.Config{})

	type ctxKey struct{}
	reqCtx := context.WithValue(context.Background(), ctxKey{}, "req-1")

	iu := user.InviteUser{Email: "ada@test.cd", Role: user.RoleUser}
	require.NoError(t, iu.Validate(reqCtx, svc))
	require.NotNil(t, repo.gotCtx)
	assert.Equal(t, "req-1", repo.gotCtx.Value(ctxKey{}))
}
