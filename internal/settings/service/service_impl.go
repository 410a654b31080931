package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/smallbiznis/invoicekit/internal/clock"
	"github.com/smallbiznis/invoicekit/internal/external"
	"github.com/smallbiznis/invoicekit/internal/providers/storage"
	"github.com/smallbiznis/invoicekit/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxLogoBytes caps logo uploads.
const MaxLogoBytes = 5 << 20

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

var logoTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Repo     domain.Repository
	Uploader storage.Uploader
	Calls    external.Policy
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	repo     domain.Repository
	uploader storage.Uploader
	calls    external.Policy
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("settings.service"),
		clock:    p.Clock,
		repo:     p.Repo,
		uploader: p.Uploader,
		calls:    p.Calls,
	}
}

// Get returns the user's branding. A user without settings gets empty branding.
func (s *Service) Get(ctx context.Context, userID string) (domain.Branding, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Branding{}, domain.ErrInvalidUser
	}
	b, err := s.repo.Find(ctx, s.db, userID)
	if err != nil {
		return domain.Branding{}, err
	}
	if b == nil {
		return domain.Branding{UserID: userID}, nil
	}
	return *b, nil
}

func (s *Service) Update(ctx context.Context, userID string, req domain.UpdateRequest) (domain.Branding, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return domain.Branding{}, err
	}

	if req.PrimaryColor != nil {
		color := strings.TrimSpace(*req.PrimaryColor)
		if color != "" && !hexColorPattern.MatchString(color) {
			return domain.Branding{}, domain.ErrInvalidColor
		}
		current.PrimaryColor = color
	}
	assign(&current.CompanyName, req.CompanyName)
	assign(&current.LogoURL, req.LogoURL)
	assign(&current.Website, req.Website)
	assign(&current.Address, req.Address)
	assign(&current.Phone, req.Phone)
	assign(&current.Email, req.Email)

	return current, s.save(ctx, &current)
}

// UploadLogo stores a PNG or JPEG logo and points the branding at its public URL.
func (s *Service) UploadLogo(ctx context.Context, userID string, upload domain.LogoUpload) (domain.Branding, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return domain.Branding{}, err
	}
	if upload.Size > MaxLogoBytes {
		return domain.Branding{}, domain.ErrImageTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(upload.Body, MaxLogoBytes+1))
	if err != nil {
		return domain.Branding{}, err
	}
	if len(data) > MaxLogoBytes {
		return domain.Branding{}, domain.ErrImageTooLarge
	}
	contentType := http.DetectContentType(data)
	if _, ok := logoTypes[contentType]; !ok {
		return domain.Branding{}, domain.ErrUnsupportedImage
	}

	if _, disabled := s.uploader.(storage.Disabled); disabled || s.uploader == nil {
		return domain.Branding{}, domain.ErrStorageUnavailable
	}

	object := storage.LogoObjectName(userID, upload.FileName, s.clock.Now())
	url, err := external.Do(ctx, s.calls, "storage", "upload_logo", func(ctx context.Context) (string, error) {
		return s.uploader.Upload(ctx, object, contentType, bytes.NewReader(data))
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			return domain.Branding{}, domain.ErrStorageUnavailable
		}
		s.log.Warn("logo upload failed", zap.String("user_id", userID), zap.Error(err))
		return domain.Branding{}, err
	}

	current.LogoURL = url
	return current, s.save(ctx, &current)
}

func (s *Service) save(ctx context.Context, b *domain.Branding) error {
	b.UpdatedAt = s.clock.Now().UTC()
	return s.repo.Upsert(ctx, s.db, b)
}

func assign(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
