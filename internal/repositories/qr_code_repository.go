package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"qr_menu_backend/internal/models"

	"github.com/google/uuid"
)

// QRCodeRepository defines the interface for QR code database operations.
type QRCodeRepository interface {
	Create(ctx context.Context, executor SQLExecutor, qr *models.QRCode) error
	GetLatest(ctx context.Context) (*models.QRCode, error)
	GetByCode(ctx context.Context, code string) (*models.QRCode, error)
	List(ctx context.Context, page, pageSize int) ([]models.QRCode, int, error)
}

type qrCodeRepository struct {
	db *sql.DB
}

// NewQRCodeRepository creates a new instance of QRCodeRepository.
func NewQRCodeRepository(db *sql.DB) QRCodeRepository {
	return &qrCodeRepository{db: db}
}

func (r *qrCodeRepository) Create(ctx context.Context, executor SQLExecutor, qr *models.QRCode) error {
	query := `INSERT INTO qr_codes (id, code, menu_url, created_at) VALUES ($1, $2, $3, $4)`
	qr.ID = uuid.NewString()
	if qr.CreatedAt.IsZero() {
		qr.CreatedAt = time.Now().UTC()
	}
	_, err := executor.ExecContext(ctx, query, qr.ID, qr.Code, qr.MenuURL, qr.CreatedAt)
	if err != nil {
		if pqCode(err) == "unique_violation" {
			return fmt.Errorf("%w: QR code %s already exists", ErrDuplicateKey, qr.Code)
		}
		return fmt.Errorf("%w: creating QR code: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *qrCodeRepository) GetLatest(ctx context.Context) (*models.QRCode, error) {
	qr := &models.QRCode{}
	query := `SELECT id, code, menu_url, created_at FROM qr_codes ORDER BY created_at DESC, id DESC LIMIT 1`
	err := r.db.QueryRowContext(ctx, query).Scan(&qr.ID, &qr.Code, &qr.MenuURL, &qr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting latest QR code: %v", ErrDatabaseError, err)
	}
	return qr, nil
}

func (r *qrCodeRepository) GetByCode(ctx context.Context, code string) (*models.QRCode, error) {
	qr := &models.QRCode{}
	query := `SELECT id, code, menu_url, created_at FROM qr_codes WHERE code = $1`
	err := r.db.QueryRowContext(ctx, query, code).Scan(&qr.ID, &qr.Code, &qr.MenuURL, &qr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting QR code %s: %v", ErrDatabaseError, code, err)
	}
	return qr, nil
}

func (r *qrCodeRepository) List(ctx context.Context, page, pageSize int) ([]models.QRCode, int, error) {
	codes := []models.QRCode{}
	totalCount := 0
	query := `SELECT id, code, menu_url, created_at, COUNT(*) OVER() AS total_count
	          FROM qr_codes
	          ORDER BY created_at DESC, id DESC
	          LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, pageSize, pageOffset(page, pageSize))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: listing QR codes: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var qr models.QRCode
		if err := rows.Scan(&qr.ID, &qr.Code, &qr.MenuURL, &qr.CreatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning QR code: %v", ErrDatabaseError, err)
		}
		codes = append(codes, qr)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating QR codes: %v", ErrDatabaseError, err)
	}
	return codes, totalCount, nil
}
