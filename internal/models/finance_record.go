// internal/models/finance_record.go
package models

import (
	"time"
)

// FinanceRecord rows are owned by the snapshot builder: the whole table
// is cleared and regenerated on every rebuild, nothing else writes
// here. Sold deals get a full row; everything else a partial row where
// only VIN, cost, sale price, and status carry meaning.
type FinanceRecord struct {
	BaseModel
	FinanceID string  `json:"finance_id" gorm:"uniqueIndex;size:16;not null"`
	SaleID    *string `json:"sale_id" gorm:"size:32"`
	VINNumber string  `json:"vin_number" gorm:"column:vin_number;size:32;not null;index"`

	Cost      float64 `json:"cost" gorm:"type:decimal(12,2);not null;default:0"`
	SalePrice float64 `json:"sale_price" gorm:"type:decimal(12,2);not null;default:0"`
	Status    string  `json:"status" gorm:"type:varchar(20);not null"`

	PaymentType    *PaymentMethod `json:"payment_type" gorm:"type:varchar(10)"`
	Deposit        float64        `json:"deposit" gorm:"type:decimal(12,2);not null;default:0"`
	LoanTerm       *int           `json:"loan_term"`
	LoanInterest   *float64       `json:"loan_interest" gorm:"type:decimal(5,2)"`
	MonthlyPayment *float64       `json:"monthly_payment" gorm:"type:decimal(12,2)"`

	CCFee          float64 `json:"cc_fee" gorm:"column:cc_fee;type:decimal(12,2);not null;default:0"`
	Tax            float64 `json:"tax" gorm:"type:decimal(12,2);not null;default:0"`
	FinalSalePrice float64 `json:"final_sale_price" gorm:"type:decimal(12,2);not null;default:0"`

	AmountPaid      float64 `json:"amount_paid" gorm:"type:decimal(12,2);not null;default:0"`
	AmountRemaining float64 `json:"amount_remaining" gorm:"type:decimal(12,2);not null;default:0"`

	NetProfit float64 `json:"net_profit" gorm:"type:decimal(12,2);not null;default:0"`
	ProfitNow float64 `json:"profit_now" gorm:"type:decimal(12,2);not null;default:0"`

	// Date the deal closed, nil for partial rows
	SaleDate *time.Time `json:"sale_date" gorm:"type:date"`
}

// FinanceSummary is the aggregated dashboard payload. Assets and
// projections come from unsold inventory, the sold figures from the
// current finance snapshot.
type FinanceSummary struct {
	TotalAssets         float64 `json:"total_assets"`
	ProjectedSale       float64 `json:"projected_sale"`
	ProjectedProfit     float64 `json:"projected_profit"`
	TotalFinalSold      float64 `json:"total_final_sold"`
	TotalTaxSold        float64 `json:"total_tax_sold"`
	TotalAvailableFunds float64 `json:"total_available_funds"`
	TotalProfitNow      float64 `json:"total_profit_now"`
}
