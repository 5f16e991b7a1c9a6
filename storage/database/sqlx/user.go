package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/user"
)

const userColumns = `id, email, password_hash, first_name, last_name, role, is_active, must_change_password,
	created_by, created_at, updated_at`

type userRow struct {
	ID                 string      `db:"id"`
	Email              string      `db:"email"`
	PasswordHash       []byte      `db:"password_hash"`
	FirstName          string      `db:"first_name"`
	LastName           string      `db:"last_name"`
	Role               string      `db:"role"`
	IsActive           bool        `db:"is_active"`
	MustChangePassword bool        `db:"must_change_password"`
	CreatedBy          null.String `db:"created_by"`
	CreatedAt          time.Time   `db:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at"`
}

func newUserRow(usr user.User) userRow {
	return userRow{
		ID:                 usr.ID,
		Email:              usr.Email,
		PasswordHash:       usr.PasswordHash,
		FirstName:          usr.FirstName,
		LastName:           usr.LastName,
		Role:               usr.Role,
		IsActive:           usr.IsActive,
		MustChangePassword: usr.MustChangePassword,
		CreatedBy:          nullString(usr.CreatedBy),
		CreatedAt:          usr.CreatedAt,
		UpdatedAt:          usr.UpdatedAt,
	}
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:                 r.ID,
		Email:              r.Email,
		PasswordHash:       r.PasswordHash,
		FirstName:          r.FirstName,
		LastName:           r.LastName,
		Role:               r.Role,
		IsActive:           r.IsActive,
		MustChangePassword: r.MustChangePassword,
		CreatedBy:          r.CreatedBy.String,
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
	}
}

// userOrderings maps the orderable fields to their column.
var userOrderings = map[string]string{
	"firstName": "first_name",
	"lastName":  "last_name",
	"email":     "email",
	"role":      "role",
	"createdAt": "created_at",
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = newID()
	q := `INSERT INTO users (` + userColumns + `) VALUES (:id, :email, :password_hash, :first_name, :last_name, :role,
		:is_active, :must_change_password, :created_by, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, executor(repo.db, exec), q, newUserRow(usr)); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryUsers(
	ctx context.Context,
	filter *user.QueryFilter,
	ordering []core.DBOrdering,
	exec ...core.DBExecutor,
) ([]user.User, error) {
	var where conditions
	if !filter.IsEmpty() {
		if filter.Role != "" {
			where.add("role = $%[1]d", filter.Role)
		}
		if filter.IsActive != nil {
			where.add("is_active = $%[1]d", *filter.IsActive)
		}
		if filter.Search != "" {
			where.add(
				"(LOWER(first_name) LIKE $%[1]d OR LOWER(last_name) LIKE $%[1]d OR LOWER(email) LIKE $%[1]d)",
				"%"+strings.ToLower(filter.Search)+"%",
			)
		}
	}

	q := `SELECT ` + userColumns + ` FROM users` + where.String() +
		` ORDER BY ` + core.OrderBy(ordering, userOrderings, "first_name ASC")
	var rows []userRow
	if err := sqlx.SelectContext(ctx, executor(repo.db, exec), &rows, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo *userRepository) getUser(ctx context.Context, col string, val interface{}, exec []core.DBExecutor) (user.User, error) {
	var r userRow
	q := `SELECT ` + userColumns + ` FROM users WHERE ` + col + ` = $1`
	if err := sqlx.GetContext(ctx, executor(repo.db, exec), &r, q, val); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound)
	}
	return r.toUser(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, "id", id, exec)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, "email", email, exec)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.UpdatedAt = core.Now()
	q := `UPDATE users SET email = :email, password_hash = :password_hash, first_name = :first_name,
		last_name = :last_name, role = :role, is_active = :is_active, must_change_password = :must_change_password,
		updated_at = :updated_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, executor(repo.db, exec), q, newUserRow(usr))
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if err = checkAffected(res, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) DeleteUser(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := executor(repo.db, exec).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return checkAffected(res, user.ErrNotFound)
}
