package inmemdb

import (
	"context"

	"github.com/productfruits/academy/core/user"
)

type userRepository struct {
	db *userTable
}

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email != email {
			continue
		}
		excluded := false
		for _, excl := range excludedUsers {
			if excl.ID == usr.ID {
				excluded = true
				break
			}
		}
		if !excluded {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, u := range repo.db.users {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(_ context.Context) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := make([]user.User, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		users = append(users, *usr)
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) DeleteUser(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.users, id)
	return nil
}

func (repo *userRepository) CreateInvitation(_ context.Context, inv user.Invitation) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.invitations[invitationKey(inv.Email, inv.Code)] = &inv
	return nil
}

func (repo *userRepository) GetInvitation(_ context.Context, email, code string) (user.Invitation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if inv, ok := repo.db.invitations[invitationKey(email, code)]; ok {
		return *inv, nil
	}
	return user.Invitation{}, user.ErrNotFound
}

func (repo *userRepository) DeleteInvitation(_ context.Context, email, code string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.invitations, invitationKey(email, code))
	return nil
}
