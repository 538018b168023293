package memory

import (
	"context"
	"sort"

	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/repository"
)

type categoryRepository struct {
	s *Store
}

func categoryNameTaken(d *state, name, exceptID string) bool {
	for id, c := range d.categories {
		if id != exceptID && c.Name == name {
			return true
		}
	}
	return false
}

func (r *categoryRepository) CreateCategory(ctx context.Context, category *model.Category) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.categories[category.ID]; ok || categoryNameTaken(d, category.Name, "") {
			return repository.ErrDuplicate
		}
		r.s.stamp(&category.CreatedAt, &category.UpdatedAt)
		d.categories[category.ID] = *category
		return nil
	})
}

func (r *categoryRepository) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	var out *model.Category
	err := r.s.read(ctx, func(d *state) error {
		c, ok := d.categories[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *categoryRepository) GetCategoriesByIDs(ctx context.Context, ids []string) ([]model.Category, error) {
	out := []model.Category{}
	err := r.s.read(ctx, func(d *state) error {
		for id := range idSet(ids) {
			if c, ok := d.categories[id]; ok {
				out = append(out, c)
			}
		}
		return nil
	})
	return out, err
}

func (r *categoryRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	out := []model.Category{}
	err := r.s.read(ctx, func(d *state) error {
		for _, c := range d.categories {
			out = append(out, c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *categoryRepository) UpdateCategory(ctx context.Context, category *model.Category) error {
	return r.s.write(ctx, func(d *state) error {
		existing, ok := d.categories[category.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if categoryNameTaken(d, category.Name, category.ID) {
			return repository.ErrDuplicate
		}
		category.CreatedAt = existing.CreatedAt
		r.s.stamp(&category.CreatedAt, &category.UpdatedAt)
		d.categories[category.ID] = *category
		return nil
	})
}

func (r *categoryRepository) DeleteCategory(ctx context.Context, id string) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.categories[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.categories, id)
		return nil
	})
}

func (r *categoryRepository) DeleteCategoriesByIDs(ctx context.Context, ids []string) (int64, error) {
	var n int64
	err := r.s.write(ctx, func(d *state) error {
		for id := range idSet(ids) {
			if _, ok := d.categories[id]; ok {
				delete(d.categories, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
