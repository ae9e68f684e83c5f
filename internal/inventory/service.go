package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pressroomhq/printdesk-backend/pkg/db/models"
	"github.com/pressroomhq/printdesk-backend/pkg/errors"
	"github.com/pressroomhq/printdesk-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service reserves paper stock against production jobs. Callers creating
// orders treat a failed reservation as soft: they log it and keep the order.
type Service struct {
	db   *gorm.DB
	tx   txRunner
	logg *logger.Logger
}

func NewService(db *gorm.DB, tx txRunner, logg *logger.Logger) *Service {
	return &Service{db: db, tx: tx, logg: logg}
}

// ReservePaperForJob moves quantity from free stock into the reserved count
// for the given material. The row is locked so two concurrent reservations
// cannot both succeed on the last sheets.
func (s *Service) ReservePaperForJob(ctx context.Context, orderID, materialID uuid.UUID, quantity int, userID uuid.UUID) error {
	if quantity <= 0 {
		return errors.New(errors.CodeValidation, "reservation quantity must be positive")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var material models.Material
		err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&material, "id = ?", materialID).Error
		if err == gorm.ErrRecordNotFound {
			return errors.New(errors.CodeNotFound, "material not found")
		}
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "loading material")
		}

		available := material.StockQty - material.ReservedQty
		if available < quantity {
			return errors.New(errors.CodeConflict,
				fmt.Sprintf("only %d %s of %s available, %d requested", available, material.Unit, material.Name, quantity)).
				WithDetails(map[string]any{"available": available, "requested": quantity})
		}

		if err := tx.WithContext(ctx).
			Model(&models.Material{}).
			Where("id = ?", materialID).
			UpdateColumn("reserved_qty", gorm.Expr("reserved_qty + ?", quantity)).Error; err != nil {
			return errors.Wrap(errors.CodeInternal, err, "reserving material")
		}

		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":    orderID.String(),
			"material_id": materialID.String(),
			"quantity":    quantity,
			"user_id":     userID.String(),
		})
		s.logg.Info(logCtx, "material reserved")
		return nil
	})
}

// ReleaseReservation hands reserved stock back, floored at zero.
func (s *Service) ReleaseReservation(ctx context.Context, materialID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Model(&models.Material{}).
		Where("id = ?", materialID).
		UpdateColumn("reserved_qty", gorm.Expr("GREATEST(reserved_qty - ?, 0)", quantity)).Error
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "releasing material reservation")
	}
	return nil
}

// ListMaterials returns the stock catalogue.
func (s *Service) ListMaterials(ctx context.Context) ([]models.Material, error) {
	var materials []models.Material
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&materials).Error; err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing materials")
	}
	return materials, nil
}
