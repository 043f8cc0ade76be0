// internal/models/sale.go
package models

import (
	"time"
)

type Sale struct {
	BaseModel
	SaleID        string        `json:"sale_id" gorm:"uniqueIndex;size:32"`
	VINNumber     string        `json:"vin_number" gorm:"column:vin_number;size:32;not null;index"`
	SalePrice     float64       `json:"sale_price" gorm:"type:decimal(12,2);not null"`
	Status        SaleStatus    `json:"status" gorm:"type:varchar(20);not null;index"`
	PaymentMethod PaymentMethod `json:"payment_method" gorm:"type:varchar(10);not null"`

	// Loan fields, null unless the deal is financed
	Deposit        *float64 `json:"deposit" gorm:"type:decimal(12,2)"`
	InterestRate   *float64 `json:"interest_rate" gorm:"type:decimal(5,2)"`
	CreditScore    *string  `json:"credit_score" gorm:"size:20"`
	TermMonths     *int     `json:"term_months"`
	MonthlyPayment *float64 `json:"monthly_payment" gorm:"type:decimal(12,2)"`

	// External reference for a card deposit collected through the
	// payment provider, empty when none was created.
	PaymentRef string `json:"payment_ref,omitempty" gorm:"size:255"`

	// Set once, on first entry into each status
	StatusUnderContractAt *time.Time `json:"status_under_contract_at"`
	StatusUnderWritingAt  *time.Time `json:"status_under_writing_at"`
	StatusSoldAt          *time.Time `json:"status_sold_at"`
}
