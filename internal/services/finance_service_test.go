// internal/services/finance_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kucukkal/dealer-backend/internal/models"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func soldSale(price float64, method models.PaymentMethod) *models.Sale {
	soldAt := day(2024, time.January, 5)
	return &models.Sale{
		SaleID:        "010520241",
		VINNumber:     "010320241",
		SalePrice:     price,
		Status:        models.SaleStatusSold,
		PaymentMethod: method,
		StatusSoldAt:  &soldAt,
	}
}

func TestSaleSnapshotRowCashSale(t *testing.T) {
	row := saleSnapshotRow(soldSale(20000, models.PaymentMethodCash), 15000, day(2024, time.March, 15))

	require.NotNil(t, row.PaymentType)
	assert.Equal(t, models.PaymentMethodCash, *row.PaymentType)
	assert.Equal(t, 1200.0, row.Tax)
	assert.Equal(t, 0.0, row.CCFee)
	assert.Equal(t, 21200.0, row.FinalSalePrice)
	assert.Equal(t, 0.0, row.AmountPaid)
	assert.Equal(t, 0.0, row.AmountRemaining)
	assert.Equal(t, 5000.0, row.NetProfit)
	assert.Equal(t, 5000.0, row.ProfitNow, "cash settles in full at sale time")

	require.NotNil(t, row.SaleDate)
	assert.Equal(t, day(2024, time.January, 5), *row.SaleDate)
	require.NotNil(t, row.SaleID)
	assert.Equal(t, "010520241", *row.SaleID)
}

func TestSaleSnapshotRowCreditCardFee(t *testing.T) {
	row := saleSnapshotRow(soldSale(10000, models.PaymentMethodCredit), 8000, day(2024, time.March, 15))

	assert.Equal(t, 600.0, row.Tax)
	assert.Equal(t, 500.0, row.CCFee)
	assert.Equal(t, 10600.0, row.FinalSalePrice)
	assert.Equal(t, 1500.0, row.NetProfit, "card fee comes out of the margin")
	assert.Equal(t, 1500.0, row.ProfitNow)
}

func TestSaleSnapshotRowLoanInstallments(t *testing.T) {
	sale := soldSale(20000, models.PaymentMethodLoan)
	sale.Deposit = floatPtr(2000)
	sale.InterestRate = floatPtr(6.0)
	sale.CreditScore = strPtr("Good")
	sale.TermMonths = intPtr(36)
	sale.MonthlyPayment = floatPtr(547.59)

	// Sold Jan 5, first due Jan 10, so three installments by Mar 15.
	row := saleSnapshotRow(sale, 15000, day(2024, time.March, 15))

	assert.Equal(t, 1642.77, row.AmountPaid)
	assert.Equal(t, 18070.47, row.AmountRemaining)
	assert.Equal(t, 5000.0, row.NetProfit)
	assert.Equal(t, -13357.23, row.ProfitNow, "loan profit counts only collected installments")
	assert.Equal(t, 2000.0, row.Deposit)
	require.NotNil(t, row.LoanTerm)
	assert.Equal(t, 36, *row.LoanTerm)
}

func TestSaleSnapshotRowNotSoldIsPartial(t *testing.T) {
	sale := soldSale(20000, models.PaymentMethodLoan)
	sale.Status = models.SaleStatusUnderWriting
	sale.StatusSoldAt = nil

	row := saleSnapshotRow(sale, 15000, day(2024, time.March, 15))

	assert.Equal(t, "Under Writing", row.Status)
	assert.Equal(t, 15000.0, row.Cost)
	assert.Equal(t, 20000.0, row.SalePrice)
	assert.Nil(t, row.PaymentType)
	assert.Nil(t, row.SaleDate)
	assert.Zero(t, row.Tax)
	assert.Zero(t, row.FinalSalePrice)
	assert.Zero(t, row.NetProfit)
}

func TestSaleSnapshotRowFallsBackToUpdatedAt(t *testing.T) {
	sale := soldSale(20000, models.PaymentMethodCash)
	sale.StatusSoldAt = nil
	sale.UpdatedAt = time.Date(2024, time.February, 20, 16, 45, 0, 0, time.UTC)

	row := saleSnapshotRow(sale, 15000, day(2024, time.March, 15))

	require.NotNil(t, row.SaleDate)
	assert.Equal(t, day(2024, time.February, 20), *row.SaleDate)
}

func TestSaleSnapshotRowMissingInventoryCost(t *testing.T) {
	// A vehicle deleted after its sale contributes zero cost.
	row := saleSnapshotRow(soldSale(20000, models.PaymentMethodCash), 0, day(2024, time.March, 15))

	assert.Equal(t, 0.0, row.Cost)
	assert.Equal(t, 20000.0, row.NetProfit, "final 21200 minus tax 1200 minus zero cost")
}

func TestInventorySnapshotRow(t *testing.T) {
	inv := &models.Inventory{
		VINNumber: "042220245",
		Cost:      9000,
		SalePrice: 12500,
		Status:    models.VehicleStatusAvailable,
	}
	row := inventorySnapshotRow(inv)

	assert.Nil(t, row.SaleID)
	assert.Equal(t, "042220245", row.VINNumber)
	assert.Equal(t, 9000.0, row.Cost)
	assert.Equal(t, 12500.0, row.SalePrice)
	assert.Equal(t, "Available", row.Status)
	assert.Nil(t, row.PaymentType)
	assert.Zero(t, row.FinalSalePrice)
}

func TestSummarize(t *testing.T) {
	unsold := []models.Inventory{
		{Cost: 10000, SalePrice: 14000, Status: models.VehicleStatusAvailable},
		{Cost: 8000, SalePrice: 11000, Status: models.VehicleStatusInService},
	}
	cash := models.PaymentMethodCash
	loanMethod := models.PaymentMethodLoan
	sold := []models.FinanceRecord{
		{Status: "Sold", PaymentType: &cash, FinalSalePrice: 21200, Tax: 1200, Cost: 15000},
		{Status: "Sold", PaymentType: &loanMethod, FinalSalePrice: 10600, Tax: 600, Cost: 9000, AmountPaid: 1642.77},
	}

	summary := summarize(unsold, sold)

	assert.Equal(t, 18000.0, summary.TotalAssets)
	assert.Equal(t, 25000.0, summary.ProjectedSale)
	assert.Equal(t, 7000.0, summary.ProjectedProfit)
	assert.Equal(t, 31800.0, summary.TotalFinalSold)
	assert.Equal(t, 1800.0, summary.TotalTaxSold)
	assert.Equal(t, 22842.77, summary.TotalAvailableFunds, "cash in full plus loan installments collected")
	assert.Equal(t, -1157.23, summary.TotalProfitNow, "sold cost not yet recovered")
}

func TestSummarizeEmpty(t *testing.T) {
	summary := summarize(nil, nil)
	assert.Zero(t, summary.TotalAssets)
	assert.Zero(t, summary.TotalProfitNow)
}

func TestBusinessIDFormat(t *testing.T) {
	id := businessID(time.Date(2024, time.April, 9, 13, 30, 0, 0, time.UTC), 7)
	assert.Equal(t, "040920247", id)

	id = businessID(time.Date(2024, time.November, 23, 0, 0, 0, 0, time.UTC), 120)
	assert.Equal(t, "11232024120", id)
}
