package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// UpsertInsight inserts record or overwrites the mutable fields of the
	// row with the same (shop, order id). The stored row is returned.
	UpsertInsight(ctx context.Context, db *gorm.DB, record *InsightRecord) (*InsightRecord, error)
	FindInsight(ctx context.Context, db *gorm.DB, shop, orderID string) (*InsightRecord, error)
	UpsertCustomer(ctx context.Context, db *gorm.DB, snapshot *CustomerSnapshot) (*CustomerSnapshot, error)
	FindCustomer(ctx context.Context, db *gorm.DB, shop, customerID string) (*CustomerSnapshot, error)
}
