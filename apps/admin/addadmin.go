package main

import (
	"context"

	"github.com/google/uuid"

	"github.com/productfruits/academy/core"
	"github.com/productfruits/academy/core/user"
)

// addAdmin creates an active admin account, or promotes the existing account
// with that email.
func (cli *commandLine) addAdmin(email, firstName, lastName, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	now := core.NowFunc().UTC()

	var created bool
	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		created = true
		usr = user.User{
			ID:        uuid.New().String(),
			Email:     email,
			FirstName: firstName,
			LastName:  lastName,
			CreatedAt: now,
		}
	}

	usr.Role = user.RoleAdmin
	usr.Status = user.StatusActive
	usr.Permissions = user.Permissions{
		CanAccessCourses:        true,
		CanTakeExams:            true,
		CanDownloadCertificates: true,
	}
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if created {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}
