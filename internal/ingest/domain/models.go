package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// InsightRecord is one stored insight. (Shop, OrderID) is unique.
type InsightRecord struct {
	ID              snowflake.ID        `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Shop            string              `gorm:"not null;uniqueIndex:ux_ai_insights_shop_order,priority:1" json:"shop"`
	OrderID         string              `gorm:"not null;uniqueIndex:ux_ai_insights_shop_order,priority:2" json:"orderId"`
	OrderName       string              `gorm:"not null" json:"orderName"`
	InsightText     string              `gorm:"not null" json:"insightText"`
	FollowUpSubject *string             `json:"followUpSubject,omitempty"`
	FollowUpBody    *string             `json:"followUpBody,omitempty"`
	CustomerType    *string             `json:"customerType,omitempty"`
	OrderValue      decimal.NullDecimal `gorm:"type:numeric(14,4)" json:"orderValue"`
	Status          Status              `gorm:"not null;default:completed" json:"status"`
	ErrorMessage    *string             `json:"errorMessage,omitempty"`
	CreatedAt       time.Time           `gorm:"not null" json:"createdAt"`
	UpdatedAt       time.Time           `gorm:"not null" json:"updatedAt"`
}

func (InsightRecord) TableName() string { return "ai_insights" }

// CustomerSnapshot is the stored customer summary served to the processor.
type CustomerSnapshot struct {
	ID                snowflake.ID    `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Shop              string          `gorm:"not null;uniqueIndex:ux_customer_snapshots_shop_customer,priority:1" json:"-"`
	CustomerID        string          `gorm:"not null;uniqueIndex:ux_customer_snapshots_shop_customer,priority:2" json:"-"`
	NumberOfOrders    int             `gorm:"not null;default:0" json:"numberOfOrders"`
	AmountSpent       decimal.Decimal `gorm:"type:numeric(14,4);not null;default:0" json:"amountSpent"`
	Currency          string          `gorm:"not null;default:USD" json:"currency"`
	CustomerCreatedAt time.Time       `gorm:"not null" json:"createdAt"`
	FirstName         string          `json:"firstName,omitempty"`
	LastName          string          `json:"lastName,omitempty"`
	Email             string          `json:"email,omitempty"`
	CreatedAt         time.Time       `gorm:"not null" json:"-"`
	UpdatedAt         time.Time       `gorm:"not null" json:"-"`
}

func (CustomerSnapshot) TableName() string { return "customer_snapshots" }

// IngestResult is returned for an accepted insight.
type IngestResult struct {
	ID      snowflake.ID
	Created bool
}
