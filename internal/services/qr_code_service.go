package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qr_menu_backend/internal/models"
	"qr_menu_backend/internal/repositories"
	"qr_menu_backend/pkg/utils"

	"github.com/skip2/go-qrcode"
)

var (
	ErrQRCodeNotFound   = errors.New("QR code not found")
	ErrQRCodeGeneration = errors.New("failed to generate QR code")
)

const (
	defaultQRImageSize = 400
	qrCodeAttempts     = 3
)

// --- QRCodeService Interface ---
type QRCodeService interface {
	GenerateQRCode(ctx context.Context) (*models.QRCode, error)
	GetLatestQRCode(ctx context.Context) (*models.QRCode, error)
	GetQRCodeByCode(ctx context.Context, code string) (*models.QRCode, error)
	GetQRCodes(ctx context.Context, page, pageSize int) ([]models.QRCode, int, error)
	RenderLatestPNG(ctx context.Context) ([]byte, *models.QRCode, error)
}

// --- qrCodeService Implementation ---
type qrCodeService struct {
	qrRepo    repositories.QRCodeRepository
	tx        repositories.Transactor
	baseURL   string
	imageSize int
	now       func() time.Time
}

// NewQRCodeService creates a QRCodeService. Menu URLs are baseURL followed by the code.
func NewQRCodeService(qrRepo repositories.QRCodeRepository, tx repositories.Transactor, baseURL string, imageSize int) QRCodeService {
	if imageSize <= 0 {
		imageSize = defaultQRImageSize
	}
	return &qrCodeService{
		qrRepo:    qrRepo,
		tx:        tx,
		baseURL:   baseURL,
		imageSize: imageSize,
		now:       time.Now,
	}
}

// GenerateQRCode creates a new code of the form QR-<unix millis>; it becomes the active menu code.
func (s *qrCodeService) GenerateQRCode(ctx context.Context) (*models.QRCode, error) {
	createdAt := s.now().UTC()
	for attempt := 0; attempt < qrCodeAttempts; attempt++ {
		code := fmt.Sprintf("QR-%d", createdAt.UnixMilli())
		qr := &models.QRCode{Code: code, MenuURL: s.baseURL + code, CreatedAt: createdAt}
		err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			return s.qrRepo.Create(ctx, exec, qr)
		})
		if err == nil {
			utils.LogInfo("QR code generated", map[string]interface{}{"code": qr.Code, "menu_url": qr.MenuURL})
			return qr, nil
		}
		if !errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %v", ErrQRCodeGeneration, err)
		}
		createdAt = createdAt.Add(time.Millisecond)
	}
	return nil, fmt.Errorf("%w: code collision after %d attempts", ErrQRCodeGeneration, qrCodeAttempts)
}

func (s *qrCodeService) GetLatestQRCode(ctx context.Context) (*models.QRCode, error) {
	qr, err := s.qrRepo.GetLatest(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrQRCodeNotFound
		}
		return nil, fmt.Errorf("failed to get latest QR code: %w", err)
	}
	return qr, nil
}

func (s *qrCodeService) GetQRCodeByCode(ctx context.Context, code string) (*models.QRCode, error) {
	qr, err := s.qrRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrQRCodeNotFound
		}
		return nil, fmt.Errorf("failed to get QR code: %w", err)
	}
	return qr, nil
}

func (s *qrCodeService) GetQRCodes(ctx context.Context, page, pageSize int) ([]models.QRCode, int, error) {
	page, pageSize = normalizePage(page, pageSize)
	codes, total, err := s.qrRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list QR codes: %w", err)
	}
	return codes, total, nil
}

// RenderLatestPNG encodes the latest code's menu URL as a PNG image.
func (s *qrCodeService) RenderLatestPNG(ctx context.Context) ([]byte, *models.QRCode, error) {
	qr, err := s.GetLatestQRCode(ctx)
	if err != nil {
		return nil, nil, err
	}
	png, err := qrcode.Encode(qr.MenuURL, qrcode.Medium, s.imageSize)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: encoding image: %v", ErrQRCodeGeneration, err)
	}
	return png, qr, nil
}
