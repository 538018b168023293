package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/repository"
)

type userRepository struct {
	s *Store
}

func emailTaken(d *state, email, exceptID string) bool {
	for id, u := range d.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *userRepository) CreateUser(ctx context.Context, user *model.User) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.users[user.ID]; ok || emailTaken(d, user.Email, "") {
			return repository.ErrDuplicate
		}
		r.s.stamp(&user.CreatedAt, &user.UpdatedAt)
		d.users[user.ID] = *user
		return nil
	})
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var out *model.User
	err := r.s.read(ctx, func(d *state) error {
		u, ok := d.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var out *model.User
	err := r.s.read(ctx, func(d *state) error {
		for _, u := range d.users {
			if strings.EqualFold(u.Email, email) {
				u := u
				out = &u
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *userRepository) GetUsersByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	out := []model.User{}
	err := r.s.read(ctx, func(d *state) error {
		for id := range idSet(ids) {
			if u, ok := d.users[id]; ok {
				out = append(out, u)
			}
		}
		return nil
	})
	return out, err
}

// LockUser is a plain lookup; transactions already hold the store lock.
func (r *userRepository) LockUser(ctx context.Context, id string, _ repository.LockMode) (*model.User, error) {
	return r.GetUserByID(ctx, id)
}

func (r *userRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	out := []model.User{}
	err := r.s.read(ctx, func(d *state) error {
		for _, u := range d.users {
			out = append(out, u)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}

func (r *userRepository) ListUserIDsByRole(ctx context.Context, role model.Role) ([]string, error) {
	ids := []string{}
	err := r.s.read(ctx, func(d *state) error {
		for id, u := range d.users {
			if u.Role == role {
				ids = append(ids, id)
			}
		}
		return nil
	})
	sort.Strings(ids)
	return ids, err
}

func (r *userRepository) UpdateUser(ctx context.Context, user *model.User) error {
	return r.s.write(ctx, func(d *state) error {
		existing, ok := d.users[user.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if emailTaken(d, user.Email, user.ID) {
			return repository.ErrDuplicate
		}
		user.CreatedAt = existing.CreatedAt
		r.s.stamp(&user.CreatedAt, &user.UpdatedAt)
		d.users[user.ID] = *user
		return nil
	})
}

func (r *userRepository) DeleteUser(ctx context.Context, id string) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.users[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.users, id)
		return nil
	})
}

func (r *userRepository) DeleteUsersByIDs(ctx context.Context, ids []string) (int64, error) {
	var n int64
	err := r.s.write(ctx, func(d *state) error {
		for id := range idSet(ids) {
			if _, ok := d.users[id]; ok {
				delete(d.users, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
