package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/productfruits/academy/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

type userRow struct {
	ID             string    `db:"id"`
	Email          string    `db:"email"`
	FirstName      string    `db:"first_name"`
	LastName       string    `db:"last_name"`
	Username       string    `db:"username"`
	Company        string    `db:"company"`
	Phone          string    `db:"phone"`
	Title          string    `db:"title"`
	Avatar         string    `db:"avatar"`
	Role           string    `db:"role"`
	Status         string    `db:"status"`
	Permissions    []byte    `db:"permissions"`
	SocialMedia    []byte    `db:"social_media"`
	InvitationCode string    `db:"invitation_code"`
	PasswordHash   []byte    `db:"password_hash"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
	LastLogin      null.Time `db:"last_login"`
}

func (repo userRepository) pack(usr user.User) userRow {
	return userRow{
		ID:             usr.ID,
		Email:          usr.Email,
		FirstName:      usr.FirstName,
		LastName:       usr.LastName,
		Username:       usr.Username,
		Company:        usr.Company,
		Phone:          usr.Phone,
		Title:          usr.Title,
		Avatar:         usr.Avatar,
		Role:           usr.Role,
		Status:         usr.Status,
		Permissions:    packJSON(usr.Permissions),
		SocialMedia:    packJSON(usr.SocialMedia),
		InvitationCode: usr.InvitationCode,
		PasswordHash:   usr.PasswordHash,
		CreatedAt:      usr.CreatedAt.UTC(),
		UpdatedAt:      usr.UpdatedAt.UTC(),
		LastLogin:      null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) unpack(row userRow) (user.User, error) {
	usr := user.User{
		ID:             row.ID,
		Email:          row.Email,
		FirstName:      row.FirstName,
		LastName:       row.LastName,
		Username:       row.Username,
		Company:        row.Company,
		Phone:          row.Phone,
		Title:          row.Title,
		Avatar:         row.Avatar,
		Role:           row.Role,
		Status:         row.Status,
		InvitationCode: row.InvitationCode,
		PasswordHash:   row.PasswordHash,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		LastLogin:      row.LastLogin.Time,
	}
	if err := unpackJSON(row.Permissions, &usr.Permissions); err != nil {
		return user.User{}, errors.Wrap(err, "unpacking user permissions")
	}
	if err := unpackJSON(row.SocialMedia, &usr.SocialMedia); err != nil {
		return user.User{}, errors.Wrap(err, "unpacking user social media")
	}
	return usr, nil
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	query := `SELECT EXISTS (SELECT 1 FROM "user" WHERE email = ?)`
	args := []interface{}{email}

	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		query = `SELECT EXISTS (SELECT 1 FROM "user" WHERE email = ? AND id NOT IN (?))`
		var err error
		if query, args, err = sqlx.In(query, email, ids); err != nil {
			return errors.Wrap(err, "checking email uniqueness")
		}
	}

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	query := `
		INSERT INTO "user" (id, email, first_name, last_name, username, company, phone, title, avatar,
		                    role, status, permissions, social_media, invitation_code, password_hash,
		                    created_at, updated_at, last_login)
		VALUES (:id, :email, :first_name, :last_name, :username, :company, :phone, :title, :avatar,
		        :role, :status, :permissions, :social_media, :invitation_code, :password_hash,
		        :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, query, repo.pack(usr)); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM "user" ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		usr, err := repo.unpack(row)
		if err != nil {
			return nil, err
		}
		users = append(users, usr)
	}
	return users, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE id = $1`, id); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by ID")
	}
	return repo.unpack(row)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE email = $1`, email); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by email")
	}
	return repo.unpack(row)
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	query := `
		UPDATE "user"
		SET email           = :email,
		    first_name      = :first_name,
		    last_name       = :last_name,
		    username        = :username,
		    company         = :company,
		    phone           = :phone,
		    title           = :title,
		    avatar          = :avatar,
		    role            = :role,
		    status          = :status,
		    permissions     = :permissions,
		    social_media    = :social_media,
		    invitation_code = :invitation_code,
		    password_hash   = :password_hash,
		    updated_at      = :updated_at,
		    last_login      = :last_login
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, repo.pack(usr))
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) DeleteUser(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM "user" WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return nil
}

func (repo userRepository) CreateInvitation(ctx context.Context, inv user.Invitation) error {
	query := `INSERT INTO invitation (email, code, user_id, expires_at) VALUES ($1, $2, $3, $4)`
	if _, err := repo.db.ExecContext(ctx, query, inv.Email, inv.Code, inv.UserID, inv.ExpiresAt.UTC()); err != nil {
		return errors.Wrap(err, "inserting invitation")
	}
	return nil
}

func (repo userRepository) GetInvitation(ctx context.Context, email, code string) (user.Invitation, error) {
	var inv user.Invitation
	query := `SELECT email, code, user_id AS "userid", expires_at AS "expiresat" FROM invitation WHERE email = $1 AND code = $2`
	if err := repo.db.GetContext(ctx, &inv, query, email, code); err != nil {
		return user.Invitation{}, trapNoRowsErr(err, user.ErrNotFound, "finding invitation")
	}
	return inv, nil
}

func (repo userRepository) DeleteInvitation(ctx context.Context, email, code string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM invitation WHERE email = $1 AND code = $2`, email, code); err != nil {
		return errors.Wrap(err, "deleting invitation")
	}
	return nil
}
