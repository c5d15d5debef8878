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
	"github.com/lib/pq"
)

// SetRepository defines the interface for set and set membership database operations.
// Every read returns sets with their memberships ordered by position.
type SetRepository interface {
	Create(ctx context.Context, executor SQLExecutor, set *models.Set) error
	GetByID(ctx context.Context, id string) (*models.Set, error)
	List(ctx context.Context, filters models.SetFilters) ([]models.Set, int, error)
	ListAll(ctx context.Context) ([]models.Set, error)
	Update(ctx context.Context, executor SQLExecutor, set *models.Set) error
	Delete(ctx context.Context, executor SQLExecutor, id string) error

	// ReplaceMemberships makes the set's lines equal to desired without ever leaving it empty:
	// kept lines are updated, new ones inserted, and only then are dropped ones deleted.
	ReplaceMemberships(ctx context.Context, executor SQLExecutor, setID string, desired []models.SetMembership) ([]models.SetMembership, error)
}

type setRepository struct {
	db *sql.DB
}

// NewSetRepository creates a new instance of SetRepository.
func NewSetRepository(db *sql.DB) SetRepository {
	return &setRepository{db: db}
}

const setColumns = `id, name, description, total_price, image_url, is_available, created_at, updated_at`

func scanSet(row scanner, set *models.Set, extra ...interface{}) error {
	dest := []interface{}{
		&set.ID, &set.Name, &set.Description, &set.TotalPrice, &set.ImageURL,
		&set.IsAvailable, &set.CreatedAt, &set.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// --- Set Methods ---

func (r *setRepository) Create(ctx context.Context, executor SQLExecutor, set *models.Set) error {
	query := `INSERT INTO sets (id, name, description, total_price, image_url, is_available, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	currentTime := time.Now().UTC()
	set.ID = uuid.NewString()
	set.CreatedAt = currentTime
	set.UpdatedAt = currentTime

	_, err := executor.ExecContext(ctx, query,
		set.ID, set.Name, set.Description, set.TotalPrice, set.ImageURL, set.IsAvailable,
		set.CreatedAt, set.UpdatedAt,
	)
	if err != nil {
		if pqCode(err) == "unique_violation" {
			return fmt.Errorf("%w: creating set: %v", ErrDuplicateKey, err)
		}
		return fmt.Errorf("%w: creating set: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *setRepository) GetByID(ctx context.Context, id string) (*models.Set, error) {
	set := &models.Set{}
	query := `SELECT ` + setColumns + ` FROM sets WHERE id = $1`
	if err := scanSet(r.db.QueryRowContext(ctx, query, id), set); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting set by ID %s: %v", ErrDatabaseError, id, err)
	}

	byID, err := r.loadMemberships(ctx, r.db, []string{set.ID})
	if err != nil {
		return nil, err
	}
	set.Memberships = byID[set.ID]
	return set, nil
}

func (r *setRepository) List(ctx context.Context, filters models.SetFilters) ([]models.Set, int, error) {
	sets := []models.Set{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + setColumns + `, COUNT(*) OVER() AS total_count FROM sets`)

	var conditions []string
	var args []interface{}
	argCount := 1

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
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC, id")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, pageOffset(filters.Page, filters.PageSize))

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: listing sets: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var set models.Set
		if err := scanSet(rows, &set, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning set: %v", ErrDatabaseError, err)
		}
		sets = append(sets, set)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating sets: %v", ErrDatabaseError, err)
	}

	if err := r.attachMemberships(ctx, sets); err != nil {
		return nil, 0, err
	}
	return sets, totalCount, nil
}

func (r *setRepository) ListAll(ctx context.Context) ([]models.Set, error) {
	sets := []models.Set{}
	rows, err := r.db.QueryContext(ctx, `SELECT `+setColumns+` FROM sets ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: listing all sets: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var set models.Set
		if err := scanSet(rows, &set); err != nil {
			return nil, fmt.Errorf("%w: scanning set: %v", ErrDatabaseError, err)
		}
		sets = append(sets, set)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sets: %v", ErrDatabaseError, err)
	}

	if err := r.attachMemberships(ctx, sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (r *setRepository) Update(ctx context.Context, executor SQLExecutor, set *models.Set) error {
	query := `UPDATE sets SET
	            name = $1, description = $2, total_price = $3, image_url = $4, is_available = $5, updated_at = $6
	          WHERE id = $7`
	set.UpdatedAt = time.Now().UTC()
	result, err := executor.ExecContext(ctx, query,
		set.Name, set.Description, set.TotalPrice, set.ImageURL, set.IsAvailable, set.UpdatedAt, set.ID,
	)
	if err != nil {
		if isMalformedID(err) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: updating set ID %s: %v", ErrDatabaseError, set.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the set; its lines and discounts cascade.
func (r *setRepository) Delete(ctx context.Context, executor SQLExecutor, id string) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM sets WHERE id = $1`, id)
	if err != nil {
		if isMalformedID(err) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: deleting set ID %s: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Membership Methods ---

func (r *setRepository) attachMemberships(ctx context.Context, sets []models.Set) error {
	if len(sets) == 0 {
		return nil
	}
	ids := make([]string, len(sets))
	for i := range sets {
		ids[i] = sets[i].ID
	}
	byID, err := r.loadMemberships(ctx, r.db, ids)
	if err != nil {
		return err
	}
	for i := range sets {
		sets[i].Memberships = byID[sets[i].ID]
	}
	return nil
}

func (r *setRepository) loadMemberships(ctx context.Context, executor SQLExecutor, setIDs []string) (map[string][]models.SetMembership, error) {
	query := `SELECT id, set_id, menu_item_id, quantity, position
	          FROM set_items
	          WHERE set_id = ANY($1::uuid[])
	          ORDER BY set_id, position, id`
	rows, err := executor.QueryContext(ctx, query, pq.Array(setIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: loading set memberships: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	out := make(map[string][]models.SetMembership, len(setIDs))
	for rows.Next() {
		var m models.SetMembership
		if err := rows.Scan(&m.ID, &m.SetID, &m.ItemID, &m.Quantity, &m.Position); err != nil {
			return nil, fmt.Errorf("%w: scanning set membership: %v", ErrDatabaseError, err)
		}
		out[m.SetID] = append(out[m.SetID], m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating set memberships: %v", ErrDatabaseError, err)
	}
	return out, nil
}

func (r *setRepository) ReplaceMemberships(ctx context.Context, executor SQLExecutor, setID string, desired []models.SetMembership) ([]models.SetMembership, error) {
	existingRows, err := executor.QueryContext(ctx,
		`SELECT id, set_id, menu_item_id, quantity, position FROM set_items WHERE set_id = $1 FOR UPDATE`, setID)
	if err != nil {
		return nil, fmt.Errorf("%w: locking set memberships: %v", ErrDatabaseError, err)
	}
	existing := map[string]models.SetMembership{}
	for existingRows.Next() {
		var m models.SetMembership
		if err := existingRows.Scan(&m.ID, &m.SetID, &m.ItemID, &m.Quantity, &m.Position); err != nil {
			existingRows.Close()
			return nil, fmt.Errorf("%w: scanning set membership: %v", ErrDatabaseError, err)
		}
		existing[m.ItemID] = m
	}
	if err := existingRows.Err(); err != nil {
		existingRows.Close()
		return nil, fmt.Errorf("%w: iterating set memberships: %v", ErrDatabaseError, err)
	}
	existingRows.Close()

	plan := planMembershipChanges(setID, existing, desired)

	for _, m := range plan.update {
		_, err := executor.ExecContext(ctx,
			`UPDATE set_items SET quantity = $1, position = $2 WHERE id = $3`, m.Quantity, m.Position, m.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: updating set membership %s: %v", ErrDatabaseError, m.ID, err)
		}
	}
	for _, m := range plan.insert {
		_, err := executor.ExecContext(ctx,
			`INSERT INTO set_items (id, set_id, menu_item_id, quantity, position) VALUES ($1, $2, $3, $4, $5)`,
			m.ID, m.SetID, m.ItemID, m.Quantity, m.Position)
		if err != nil {
			switch pqCode(err) {
			case "unique_violation":
				return nil, fmt.Errorf("%w: set %s already contains item %s", ErrDuplicateKey, setID, m.ItemID)
			case "foreign_key_violation":
				return nil, fmt.Errorf("%w: set %s", ErrForeignKey, setID)
			}
			return nil, fmt.Errorf("%w: inserting set membership: %v", ErrDatabaseError, err)
		}
	}
	if len(plan.remove) > 0 {
		_, err := executor.ExecContext(ctx, `DELETE FROM set_items WHERE id = ANY($1::uuid[])`, pq.Array(plan.remove))
		if err != nil {
			return nil, fmt.Errorf("%w: deleting set memberships: %v", ErrDatabaseError, err)
		}
	}
	return plan.result, nil
}

type membershipPlan struct {
	update []models.SetMembership
	insert []models.SetMembership
	remove []string
	result []models.SetMembership // Final lines in position order
}

// planMembershipChanges diffs the current lines (keyed by item id) against the desired ones.
func planMembershipChanges(setID string, existing map[string]models.SetMembership, desired []models.SetMembership) membershipPlan {
	var plan membershipPlan
	kept := make(map[string]bool, len(desired))

	for i, want := range desired {
		want.SetID = setID
		want.Position = i
		if cur, ok := existing[want.ItemID]; ok {
			want.ID = cur.ID
			kept[want.ItemID] = true
			if cur.Quantity != want.Quantity || cur.Position != want.Position {
				plan.update = append(plan.update, want)
			}
		} else {
			want.ID = uuid.NewString()
			plan.insert = append(plan.insert, want)
		}
		plan.result = append(plan.result, want)
	}
	for itemID, cur := range existing {
		if !kept[itemID] {
			plan.remove = append(plan.remove, cur.ID)
		}
	}
	return plan
}
