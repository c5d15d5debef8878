package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"qr_menu_backend/internal/models"

	"github.com/google/uuid"
)

// ItemRepository defines the interface for menu item database operations.
type ItemRepository interface {
	Create(ctx context.Context, executor SQLExecutor, item *models.Item) error
	GetByID(ctx context.Context, id string) (*models.Item, error)
	List(ctx context.Context, filters models.ItemFilters) ([]models.Item, int, error) // Returns items, total count, error
	ListAll(ctx context.Context) ([]models.Item, error)                              // Newest first
	Update(ctx context.Context, executor SQLExecutor, item *models.Item) error
	Delete(ctx context.Context, executor SQLExecutor, id string) error
}

type itemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new instance of ItemRepository.
func NewItemRepository(db *sql.DB) ItemRepository {
	return &itemRepository{db: db}
}

const itemColumns = `id, name, description, price, category, image_url, is_available, created_at, updated_at`

func scanItem(row scanner, item *models.Item, extra ...interface{}) error {
	dest := []interface{}{
		&item.ID, &item.Name, &item.Description, &item.Price, &item.Category,
		&item.ImageURL, &item.IsAvailable, &item.CreatedAt, &item.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// Create assigns a new id and timestamps and inserts the item.
func (r *itemRepository) Create(ctx context.Context, executor SQLExecutor, item *models.Item) error {
	query := `INSERT INTO menu_items (id, name, description, price, category, image_url, is_available, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	currentTime := time.Now().UTC()
	item.ID = uuid.NewString()
	item.CreatedAt = currentTime
	item.UpdatedAt = currentTime

	_, err := executor.ExecContext(ctx, query,
		item.ID, item.Name, item.Description, item.Price, item.Category, item.ImageURL, item.IsAvailable,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if pqCode(err) == "unique_violation" {
			return fmt.Errorf("%w: creating menu item: %v", ErrDuplicateKey, err)
		}
		return fmt.Errorf("%w: creating menu item: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, id string) (*models.Item, error) {
	item := &models.Item{}
	query := `SELECT ` + itemColumns + ` FROM menu_items WHERE id = $1`
	err := scanItem(r.db.QueryRowContext(ctx, query, id), item)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting menu item by ID %s: %v", ErrDatabaseError, id, err)
	}
	return item, nil
}

func (r *itemRepository) List(ctx context.Context, filters models.ItemFilters) ([]models.Item, int, error) {
	items := []models.Item{}
	totalCount := 0

	query, args := buildItemListQuery(filters)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: listing menu items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.Item
		if err := scanItem(rows, &item, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning menu item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating menu items: %v", ErrDatabaseError, err)
	}
	return items, totalCount, nil
}

func buildItemListQuery(filters models.ItemFilters) (string, []interface{}) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + itemColumns + `, COUNT(*) OVER() AS total_count FROM menu_items`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Category != nil && strings.TrimSpace(*filters.Category) != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argCount))
		args = append(args, strings.TrimSpace(*filters.Category))
		argCount++
	}
	if filters.Available != nil {
		conditions = append(conditions, fmt.Sprintf("is_available = $%d", argCount))
		args = append(args, *filters.Available)
		argCount++
	}
	if filters.Search != nil && strings.TrimSpace(*filters.Search) != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argCount))
		args = append(args, "%"+strings.TrimSpace(*filters.Search)+"%")
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC, id")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, pageOffset(filters.Page, filters.PageSize))
	return queryBuilder.String(), args
}

func (r *itemRepository) ListAll(ctx context.Context) ([]models.Item, error) {
	items := []models.Item{}
	query := `SELECT ` + itemColumns + ` FROM menu_items ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: listing all menu items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.Item
		if err := scanItem(rows, &item); err != nil {
			return nil, fmt.Errorf("%w: scanning menu item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating menu items: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *itemRepository) Update(ctx context.Context, executor SQLExecutor, item *models.Item) error {
	query := `UPDATE menu_items SET
	            name = $1, description = $2, price = $3, category = $4, image_url = $5,
	            is_available = $6, updated_at = $7
	          WHERE id = $8`
	item.UpdatedAt = time.Now().UTC()
	result, err := executor.ExecContext(ctx, query,
		item.Name, item.Description, item.Price, item.Category, item.ImageURL,
		item.IsAvailable, item.UpdatedAt, item.ID,
	)
	if err != nil {
		if isMalformedID(err) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: updating menu item ID %s: %v", ErrDatabaseError, item.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the item. Discounts on it go with it (ON DELETE CASCADE); set lines stay.
func (r *itemRepository) Delete(ctx context.Context, executor SQLExecutor, id string) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		if isMalformedID(err) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: deleting menu item ID %s: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
