package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/core/port"
	"github.com/TheVish04/CAprep/internal/repository"
)

var (
	// ErrResourceNotFound is returned for an unknown resource ID.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrInvalidResource is returned for a rejected upload.
	ErrInvalidResource = errors.New("invalid resource")
	// ErrStorageDisabled is returned when no object storage is configured.
	ErrStorageDisabled = errors.New("file storage is not configured")
)

const maxResourceSize = 20 << 20 // 20 MiB

// ResourceService manages study material PDFs: metadata in the database,
// file bytes in object storage.
type ResourceService struct {
	resources port.ResourceRepository
	storage   port.ObjectStorage
	cache     port.ResponseCache
	urlExpiry time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewResourceService(
	resources port.ResourceRepository,
	storage port.ObjectStorage,
	cache port.ResponseCache,
	urlExpiry time.Duration,
	log *zap.Logger,
) *ResourceService {
	return &ResourceService{
		resources: resources,
		storage:   storage,
		cache:     cache,
		urlExpiry: urlExpiry,
		logger:    log,
		now:       time.Now,
	}
}

// WithClock overrides the service's time source. Test helper.
func (s *ResourceService) WithClock(now func() time.Time) *ResourceService {
	s.now = now
	return s
}

// Upload stores a PDF and its metadata.
func (s *ResourceService) Upload(ctx context.Context, resource *domain.Resource, file io.Reader, size int64, contentType string) (*domain.Resource, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	if strings.TrimSpace(resource.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidResource)
	}
	if contentType != "application/pdf" {
		return nil, fmt.Errorf("%w: only PDF uploads are accepted", ErrInvalidResource)
	}
	if size <= 0 || size > maxResourceSize {
		return nil, fmt.Errorf("%w: file size must be between 1 byte and %d bytes", ErrInvalidResource, maxResourceSize)
	}

	now := s.now()
	resource.ID = uuid.NewString()
	resource.ObjectKey = fmt.Sprintf("resources/%s.pdf", resource.ID)
	resource.FileSize = size
	resource.CreatedAt = now
	resource.UpdatedAt = now

	if err := s.storage.Upload(ctx, resource.ObjectKey, file, size, contentType); err != nil {
		return nil, fmt.Errorf("store resource file: %w", err)
	}
	if err := s.resources.Create(ctx, resource); err != nil {
		// Best effort cleanup of the orphaned object.
		if removeErr := s.storage.Delete(ctx, resource.ObjectKey); removeErr != nil {
			s.logger.Error("failed to remove orphaned object",
				zap.String("object_key", resource.ObjectKey),
				zap.Error(removeErr),
			)
		}
		return nil, fmt.Errorf("create resource: %w", err)
	}

	s.cache.Invalidate("/api/resources")
	s.logger.Info("resource uploaded",
		zap.String("resource_id", resource.ID),
		zap.Int64("size", size),
	)
	return resource, nil
}

func (s *ResourceService) Get(ctx context.Context, id string) (*domain.Resource, error) {
	resource, err := s.resources.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("load resource: %w", err)
	}
	return resource, nil
}

// DownloadURL returns a time limited link to the resource's file.
func (s *ResourceService) DownloadURL(ctx context.Context, id string) (string, error) {
	if s.storage == nil {
		return "", ErrStorageDisabled
	}

	resource, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	url, err := s.storage.PresignedURL(ctx, resource.ObjectKey, s.urlExpiry)
	if err != nil {
		return "", fmt.Errorf("presign resource: %w", err)
	}
	return url, nil
}

func (s *ResourceService) Update(ctx context.Context, resource *domain.Resource) (*domain.Resource, error) {
	if strings.TrimSpace(resource.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidResource)
	}

	resource.UpdatedAt = s.now()
	if err := s.resources.Update(ctx, resource); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("update resource: %w", err)
	}

	s.cache.Invalidate("/api/resources")
	return resource, nil
}

func (s *ResourceService) Delete(ctx context.Context, id string) error {
	resource, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.resources.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResourceNotFound
		}
		return fmt.Errorf("delete resource: %w", err)
	}

	if s.storage != nil {
		if err := s.storage.Delete(ctx, resource.ObjectKey); err != nil {
			s.logger.Error("failed to remove object for deleted resource",
				zap.String("object_key", resource.ObjectKey),
				zap.Error(err),
			)
		}
	}

	s.cache.Invalidate("/api/resources")
	s.logger.Info("resource deleted", zap.String("resource_id", id))
	return nil
}

func (s *ResourceService) List(ctx context.Context, filter domain.ResourceFilter) ([]domain.Resource, int, error) {
	resources, total, err := s.resources.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list resources: %w", err)
	}
	return resources, total, nil
}
