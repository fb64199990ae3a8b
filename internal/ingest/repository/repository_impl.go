package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/orderpulse/internal/ingest/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

var insightMutableColumns = []string{
	"order_name",
	"insight_text",
	"follow_up_subject",
	"follow_up_body",
	"customer_type",
	"order_value",
	"status",
	"error_message",
	"updated_at",
}

var snapshotMutableColumns = []string{
	"number_of_orders",
	"amount_spent",
	"currency",
	"customer_created_at",
	"first_name",
	"last_name",
	"email",
	"updated_at",
}

func (r *repo) UpsertInsight(ctx context.Context, db *gorm.DB, record *domain.InsightRecord) (*domain.InsightRecord, error) {
	var stored *domain.InsightRecord
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shop"}, {Name: "order_id"}},
			DoUpdates: clause.AssignmentColumns(insightMutableColumns),
		}).Create(record).Error
		if err != nil {
			return err
		}
		stored, err = r.FindInsight(ctx, tx, record.Shop, record.OrderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *repo) FindInsight(ctx context.Context, db *gorm.DB, shop, orderID string) (*domain.InsightRecord, error) {
	var record domain.InsightRecord
	err := db.WithContext(ctx).
		Where("shop = ? AND order_id = ?", shop, orderID).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repo) UpsertCustomer(ctx context.Context, db *gorm.DB, snapshot *domain.CustomerSnapshot) (*domain.CustomerSnapshot, error) {
	var stored *domain.CustomerSnapshot
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shop"}, {Name: "customer_id"}},
			DoUpdates: clause.AssignmentColumns(snapshotMutableColumns),
		}).Create(snapshot).Error
		if err != nil {
			return err
		}
		stored, err = r.FindCustomer(ctx, tx, snapshot.Shop, snapshot.CustomerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *repo) FindCustomer(ctx context.Context, db *gorm.DB, shop, customerID string) (*domain.CustomerSnapshot, error) {
	var snapshot domain.CustomerSnapshot
	err := db.WithContext(ctx).
		Where("shop = ? AND customer_id = ?", shop, customerID).
		Take(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}
