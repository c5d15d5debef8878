package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"qr_menu_backend/internal/models"
	"qr_menu_backend/pkg/utils"

	"github.com/google/uuid"
)

// DiscountRepository defines the interface for discount database operations.
type DiscountRepository interface {
	Create(ctx context.Context, executor SQLExecutor, discount *models.Discount) error
	GetByID(ctx context.Context, id string) (*models.Discount, error)
	List(ctx context.Context, filters models.DiscountFilters) ([]models.Discount, int, error)
	ListAll(ctx context.Context) ([]models.Discount, error) // Newest first; rows that fail to decode are skipped
	Update(ctx context.Context, executor SQLExecutor, discount *models.Discount) error
	Delete(ctx context.Context, executor SQLExecutor, id string) error
}

type discountRepository struct {
	db *sql.DB
}

// NewDiscountRepository creates a new instance of DiscountRepository.
func NewDiscountRepository(db *sql.DB) DiscountRepository {
	return &discountRepository{db: db}
}

const discountColumns = `id, menu_item_id, set_id, discount_percentage, start_time, end_time, is_active, created_at, updated_at`

// scanDiscount reads one row. A row whose target columns are both set or both NULL
// yields models.ErrInvalidDiscountTarget.
func scanDiscount(row scanner, d *models.Discount, extra ...interface{}) error {
	var itemID, setID sql.NullString
	dest := []interface{}{
		&d.ID, &itemID, &setID, &d.Percentage, &d.StartTime, &d.EndTime,
		&d.IsActive, &d.CreatedAt, &d.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	target, err := models.NewDiscountTarget(nullStringPtr(itemID), nullStringPtr(setID))
	if err != nil {
		return err
	}
	d.Target = target
	return nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func (r *discountRepository) Create(ctx context.Context, executor SQLExecutor, d *models.Discount) error {
	query := `INSERT INTO discounts
	            (id, menu_item_id, set_id, discount_percentage, start_time, end_time, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	currentTime := time.Now().UTC()
	d.ID = uuid.NewString()
	d.CreatedAt = currentTime
	d.UpdatedAt = currentTime
	itemID, setID := d.Target.Columns()

	_, err := executor.ExecContext(ctx, query,
		d.ID, itemID, setID, d.Percentage, d.StartTime, d.EndTime, d.IsActive, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		switch pqCode(err) {
		case "foreign_key_violation":
			return fmt.Errorf("%w: discount target %s", ErrForeignKey, d.Target)
		case "check_violation":
			return fmt.Errorf("%w: discount rejected by constraint: %v", models.ErrValidation, err)
		}
		return fmt.Errorf("%w: creating discount: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *discountRepository) GetByID(ctx context.Context, id string) (*models.Discount, error) {
	d := &models.Discount{}
	query := `SELECT ` + discountColumns + ` FROM discounts WHERE id = $1`
	if err := scanDiscount(r.db.QueryRowContext(ctx, query, id), d); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting discount by ID %s: %v", ErrDatabaseError, id, err)
	}
	return d, nil
}

func (r *discountRepository) List(ctx context.Context, filters models.DiscountFilters) ([]models.Discount, int, error) {
	discounts := []models.Discount{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + discountColumns + `, COUNT(*) OVER() AS total_count FROM discounts`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argCount))
		args = append(args, *filters.Active)
		argCount++
	}
	if filters.TargetType != nil {
		switch models.TargetKind(*filters.TargetType) {
		case models.TargetItem:
			conditions = append(conditions, "menu_item_id IS NOT NULL")
		case models.TargetSet:
			conditions = append(conditions, "set_id IS NOT NULL")
		}
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC, id")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, pageOffset(filters.Page, filters.PageSize))

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: listing discounts: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var d models.Discount
		if err := scanDiscount(rows, &d, &totalCount); err != nil {
			if errors.Is(err, models.ErrInvalidDiscountTarget) {
				utils.LogWarn("Skipping discount with invalid target", map[string]interface{}{"discount_id": d.ID})
				continue
			}
			return nil, 0, fmt.Errorf("%w: scanning discount: %v", ErrDatabaseError, err)
		}
		discounts = append(discounts, d)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating discounts: %v", ErrDatabaseError, err)
	}
	return discounts, totalCount, nil
}

func (r *discountRepository) ListAll(ctx context.Context) ([]models.Discount, error) {
	discounts := []models.Discount{}
	rows, err := r.db.QueryContext(ctx, `SELECT `+discountColumns+` FROM discounts ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: listing all discounts: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var d models.Discount
		if err := scanDiscount(rows, &d); err != nil {
			if errors.Is(err, models.ErrValidation) {
				utils.LogWarn("Skipping malformed discount row", map[string]interface{}{"discount_id": d.ID, "error": err.Error()})
				continue
			}
			return nil, fmt.Errorf("%w: scanning discount: %v", ErrDatabaseError, err)
		}
		if !models.ValidPercentage(d.Percentage) {
			utils.LogWarn("Skipping discount with percentage outside 0..100", map[string]interface{}{"discount_id": d.ID})
			continue
		}
		discounts = append(discounts, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating discounts: %v", ErrDatabaseError, err)
	}
	return discounts, nil
}

func (r *discountRepository) Update(ctx context.Context, executor SQLExecutor, d *models.Discount) error {
	query := `UPDATE discounts SET
	            menu_item_id = $1, set_id = $2, discount_percentage = $3, start_time = $4, end_time = $5,
	            is_active = $6, updated_at = $7
	          WHERE id = $8`
	d.UpdatedAt = time.Now().UTC()
	itemID, setID := d.Target.Columns()
	result, err := executor.ExecContext(ctx, query,
		itemID, setID, d.Percentage, d.StartTime, d.EndTime, d.IsActive, d.UpdatedAt, d.ID,
	)
	if err != nil {
		switch {
		case isMalformedID(err):
			return ErrNotFound
		case pqCode(err) == "foreign_key_violation":
			return fmt.Errorf("%w: discount target %s", ErrForeignKey, d.Target)
		case pqCode(err) == "check_violation":
			return fmt.Errorf("%w: discount rejected by constraint: %v", models.ErrValidation, err)
		}
		return fmt.Errorf("%w: updating discount ID %s: %v", ErrDatabaseError, d.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *discountRepository) Delete(ctx context.Context, executor SQLExecutor, id string) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM discounts WHERE id = $1`, id)
	if err != nil {
		if isMalformedID(err) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: deleting discount ID %s: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
