package storage

import (
	"context"
	"fmt"

	"expenses/internal/core"
)

const categoryColumns = "id, name, owner_id"

func scanCategory(row rowScanner) (core.Category, error) {
	var c core.Category
	err := row.Scan(&c.ID, &c.Name, &c.OwnerID)
	return c, err
}

// ListCategories returns the owner's categories ordered by name.
func (s *Store) ListCategories(ctx context.Context, ownerID string) ([]core.Category, error) {
	w := NewWhere().And("owner_id = ?", ownerID)
	rows, err := s.db.QueryContext(ctx, "SELECT "+categoryColumns+" FROM categories"+w.String()+" ORDER BY name, id", w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []core.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) GetCategory(ctx context.Context, ownerID, id string) (core.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE owner_id = $1 AND id = $2", ownerID, id))
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", notFound(err, "category", id))
	}
	return c, nil
}

func (s *Store) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.ID = s.newID()
	created, err := scanCategory(s.db.QueryRowContext(ctx,
		"INSERT INTO categories (id, name, owner_id) VALUES ($1, $2, $3) RETURNING "+categoryColumns,
		c.ID, c.Name, c.OwnerID))
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.logMutation(ctx, c.OwnerID, "category", "create", 1)
	return created, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	updated, err := scanCategory(s.db.QueryRowContext(ctx,
		"UPDATE categories SET name = $1 WHERE id = $2 AND owner_id = $3 RETURNING "+categoryColumns,
		c.Name, c.ID, c.OwnerID))
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", notFound(err, "category", c.ID))
	}
	s.logMutation(ctx, c.OwnerID, "category", "update", 1)
	return updated, nil
}

// DeleteCategory removes a category. Its transactions stay and become
// uncategorized through ON DELETE SET NULL.
func (s *Store) DeleteCategory(ctx context.Context, ownerID, id string) (core.Category, error) {
	deleted, err := scanCategory(s.db.QueryRowContext(ctx,
		"DELETE FROM categories WHERE id = $1 AND owner_id = $2 RETURNING "+categoryColumns,
		id, ownerID))
	if err != nil {
		return core.Category{}, fmt.Errorf("delete category: %w", notFound(err, "category", id))
	}
	s.logMutation(ctx, ownerID, "category", "delete", 1)
	return deleted, nil
}

// DeleteCategories is the bulk form of DeleteCategory.
func (s *Store) DeleteCategories(ctx context.Context, ownerID string, ids []string) ([]string, error) {
	w := NewWhere().And("owner_id = ?", ownerID).In("id", ids)
	deleted, err := s.deleteReturningIDs(ctx, "DELETE FROM categories"+w.String()+" RETURNING id", w.Args())
	if err != nil {
		return nil, fmt.Errorf("bulk delete categories: %w", err)
	}
	s.logMutation(ctx, ownerID, "category", "bulk_delete", len(deleted))
	return deleted, nil
}
