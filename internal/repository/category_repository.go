package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tanepro-b2b/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

var ErrCategoryAlreadyExists = errors.New("category with this name already exists")

// uniqueViolation is the PostgreSQL SQLSTATE of a unique constraint violation
const uniqueViolation = "23505"

// CategoryRepository defines the data access of the remote categories table
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id string) error
	// List returns every category ordered by id
	List(ctx context.Context) ([]*domain.Category, error)
	FindByID(ctx context.Context, id string) (*domain.Category, error)
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, name, description, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		category.ID,
		category.Name,
		category.Description,
		category.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE categories SET name = $2, description = $3 WHERE id = $1`,
		category.ID,
		category.Name,
		category.Description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to update category: %w", err)
	}

	return expectRow(result, domain.ErrCategoryNotFound)
}

func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	return expectRow(result, domain.ErrCategoryNotFound)
}

func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	// numeric legacy ids sort before generated ones
	query := `
		SELECT id, name, description, created_at
		FROM categories
		ORDER BY (id ~ '^[0-9]+$') DESC, LENGTH(id), id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category := &domain.Category{}
		err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Description,
			&category.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	query := `
		SELECT id, name, description, created_at
		FROM categories
		WHERE id = $1
	`

	category := &domain.Category{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}

	return category, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
