package inmemdb

import (
	"context"
	"strings"
	"time"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/user"
)

type userRepository struct {
	db *table[user.User]
}

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.users}
}

var userOrderings = map[string]func(a, b user.User) int{
	"firstName": func(a, b user.User) int { return cmpStrings(a.FirstName, b.FirstName) },
	"lastName":  func(a, b user.User) int { return cmpStrings(a.LastName, b.LastName) },
	"email":     func(a, b user.User) int { return strings.Compare(a.Email, b.Email) },
	"role":      func(a, b user.User) int { return strings.Compare(a.Role, b.Role) },
	"createdAt": func(a, b user.User) int { return cmpTimes(a.CreatedAt, b.CreatedAt) },
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	usr.ID = newID()
	if !repo.db.insert(usr.ID, usr, func(u user.User) bool { return u.Email == usr.Email }) {
		return user.User{}, user.ErrEmailExists
	}
	return usr, nil
}

func (repo *userRepository) QueryUsers(
	_ context.Context,
	filter *user.QueryFilter,
	ordering []core.DBOrdering,
	_ ...core.DBExecutor,
) ([]user.User, error) {
	users := repo.db.filter(func(u user.User) bool {
		if filter.IsEmpty() {
			return true
		}
		if filter.Role != "" && u.Role != filter.Role {
			return false
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			return false
		}
		if filter.Search != "" {
			search := strings.ToLower(filter.Search)
			return strings.Contains(strings.ToLower(u.FirstName), search) ||
				strings.Contains(strings.ToLower(u.LastName), search) ||
				strings.Contains(strings.ToLower(u.Email), search)
		}
		return true
	})

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "firstName", Ascending: true}}
	}
	sortRows(users, func(a, b user.User) int {
		for _, ord := range ordering {
			cmp, ok := userOrderings[ord.Field]
			if !ok {
				continue
			}
			c := cmp(a, b)
			if !ord.Ascending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	}, func(u user.User) string { return u.ID })
	return users, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string, _ ...core.DBExecutor) (user.User, error) {
	if usr, ok := repo.db.get(id); ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string, _ ...core.DBExecutor) (user.User, error) {
	users := repo.db.filter(func(u user.User) bool { return u.Email == email })
	if len(users) == 0 {
		return user.User{}, user.ErrNotFound
	}
	return users[0], nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	usr.UpdatedAt = core.Now()
	found, ok := repo.db.replace(usr.ID, usr, func(_ string, u user.User) bool { return u.Email == usr.Email })
	if !found {
		return user.User{}, user.ErrNotFound
	}
	if !ok {
		return user.User{}, user.ErrEmailExists
	}
	return usr, nil
}

func (repo *userRepository) DeleteUser(_ context.Context, id string, _ ...core.DBExecutor) error {
	if !repo.db.remove(id) {
		return user.ErrNotFound
	}
	return nil
}

func cmpTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
