package files

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pressroomhq/printdesk-backend/pkg/db/models"
	"github.com/pressroomhq/printdesk-backend/pkg/errors"
	"github.com/pressroomhq/printdesk-backend/pkg/logger"
	"github.com/pressroomhq/printdesk-backend/pkg/storage/gcs"
)

// objectStore abstracts the bucket so tests can run without GCS.
type objectStore interface {
	Upload(ctx context.Context, objectPath, contentType string, body io.Reader) (*gcs.UploadResult, error)
	Delete(ctx context.Context, objectPath string) error
}

// Service uploads order attachments to object storage and records only the
// returned URL and path locally.
type Service struct {
	db    *gorm.DB
	store objectStore
	logg  *logger.Logger
}

func NewService(db *gorm.DB, store objectStore, logg *logger.Logger) *Service {
	return &Service{db: db, store: store, logg: logg}
}

// Upload stores the file and attaches it to the order.
func (s *Service) Upload(ctx context.Context, orderID, uploadedBy uuid.UUID, fileType, fileName, contentType string, body io.Reader) (*models.OrderFile, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, errors.New(errors.CodeValidation, "file name is required")
	}

	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.CodeNotFound, "order not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "loading order")
	}

	objectPath := objectPathFor(orderID, fileName)
	result, err := s.store.Upload(ctx, objectPath, contentType, body)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "uploading file to storage")
	}

	record := &models.OrderFile{
		OrderID:    orderID,
		FileType:   fileType,
		FileName:   fileName,
		URL:        result.URL,
		Path:       result.Path,
		UploadedBy: uploadedBy,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		// The object is orphaned if this cleanup fails; log and move on.
		if delErr := s.store.Delete(ctx, result.Path); delErr != nil {
			s.logg.Warn(ctx, "cleanup of orphaned upload failed: "+delErr.Error())
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "recording uploaded file")
	}
	return record, nil
}

// List returns an order's attachments, newest first.
func (s *Service) List(ctx context.Context, orderID uuid.UUID) ([]models.OrderFile, error) {
	var records []models.OrderFile
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing order files")
	}
	return records, nil
}

// Delete removes the record and then the stored object. A failed object
// delete is logged; the record stays gone.
func (s *Service) Delete(ctx context.Context, orderID, fileID uuid.UUID) error {
	var record models.OrderFile
	err := s.db.WithContext(ctx).First(&record, "id = ? AND order_id = ?", fileID, orderID).Error
	if err == gorm.ErrRecordNotFound {
		return errors.New(errors.CodeNotFound, "file not found")
	}
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "loading file record")
	}

	if err := s.db.WithContext(ctx).Delete(&record).Error; err != nil {
		return errors.Wrap(errors.CodeInternal, err, "deleting file record")
	}
	if err := s.store.Delete(ctx, record.Path); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, orderID.String()), "stored object delete failed: "+err.Error())
	}
	return nil
}

func objectPathFor(orderID uuid.UUID, fileName string) string {
	clean := strings.ReplaceAll(path.Base(fileName), " ", "_")
	return fmt.Sprintf("orders/%s/%d_%s", orderID, time.Now().UTC().UnixMilli(), clean)
}
