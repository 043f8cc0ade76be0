// internal/services/finance_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kucukkal/dealer-backend/internal/cache"
	"github.com/kucukkal/dealer-backend/internal/loan"
	"github.com/kucukkal/dealer-backend/internal/models"
	"github.com/kucukkal/dealer-backend/internal/utils"
)

const (
	taxRate       = 0.06
	creditFeeRate = 0.05
)

// FinanceService owns the finance snapshot: a fully derived read model
// rebuilt from Sales and Inventory, never incrementally updated.
type FinanceService struct {
	db            *gorm.DB
	summaryCache  *cache.SummaryCache
	notifications *NotificationService
}

func NewFinanceService(db *gorm.DB, summaryCache *cache.SummaryCache, notifications *NotificationService) *FinanceService {
	return &FinanceService{
		db:            db,
		summaryCache:  summaryCache,
		notifications: notifications,
	}
}

func (s *FinanceService) List(params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.FinanceRecord{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count finance records: %w", err)
	}

	var rows []models.FinanceRecord
	err := utils.ApplyPagination(query.Order("id DESC"), params).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list finance records: %w", err)
	}

	result := utils.CreatePaginationResult(rows, total, params)
	return &result, nil
}

// Rebuild regenerates the whole finance table from the current Sales
// and Inventory tables in one transaction: either the new snapshot
// replaces the old one completely or the old one stays untouched.
// Every sale gets a row (full for Sold, partial otherwise); unsold
// inventory without any sale gets an inventory-only partial row.
func (s *FinanceService) Rebuild() error {
	start := time.Now()
	var saleRows, inventoryRows int

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM finance_records").Error; err != nil {
			return fmt.Errorf("failed to clear finance records: %w", err)
		}

		var sales []models.Sale
		if err := tx.Find(&sales).Error; err != nil {
			return fmt.Errorf("failed to load sales: %w", err)
		}
		var inventory []models.Inventory
		if err := tx.Find(&inventory).Error; err != nil {
			return fmt.Errorf("failed to load inventory: %w", err)
		}

		costByVIN := make(map[string]float64, len(inventory))
		for _, inv := range inventory {
			costByVIN[inv.VINNumber] = inv.Cost
		}

		today := time.Now()
		coveredVINs := make(map[string]bool, len(sales))

		for i := range sales {
			sale := &sales[i]
			coveredVINs[sale.VINNumber] = true

			row := saleSnapshotRow(sale, costByVIN[sale.VINNumber], today)
			if err := insertSnapshotRow(tx, row, "F"); err != nil {
				return err
			}
			saleRows++
		}

		for i := range inventory {
			inv := &inventory[i]
			if inv.Status == models.VehicleStatusSold || coveredVINs[inv.VINNumber] {
				continue
			}
			if err := insertSnapshotRow(tx, inventorySnapshotRow(inv), "I"); err != nil {
				return err
			}
			inventoryRows++
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.summaryCache.Invalidate(context.Background()); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate finance summary cache")
	}

	took := time.Since(start)
	logrus.WithFields(logrus.Fields{
		"sale_rows":      saleRows,
		"inventory_rows": inventoryRows,
		"took":           took,
	}).Info("Finance snapshot rebuilt")

	if err := s.notifications.SendSnapshotReport(saleRows, inventoryRows, took); err != nil {
		logrus.WithError(err).Warn("Failed to send snapshot report")
	}
	return nil
}

// Summary computes the dashboard aggregates, serving from Redis when a
// fresh copy is cached. Every mutation path invalidates the cache, so
// a hit is never stale.
func (s *FinanceService) Summary(ctx context.Context) (*models.FinanceSummary, error) {
	cached, hit, err := s.summaryCache.Get(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Finance summary cache read failed")
	} else if hit {
		return cached, nil
	}

	var unsold []models.Inventory
	err = s.db.Where("status <> ?", models.VehicleStatusSold).Find(&unsold).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}

	var sold []models.FinanceRecord
	err = s.db.Where("status = ?", string(models.SaleStatusSold)).Find(&sold).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load finance records: %w", err)
	}

	summary := summarize(unsold, sold)

	if err := s.summaryCache.Set(ctx, &summary); err != nil {
		logrus.WithError(err).Warn("Finance summary cache write failed")
	}
	return &summary, nil
}

func insertSnapshotRow(tx *gorm.DB, row *models.FinanceRecord, prefix string) error {
	if err := tx.Create(row).Error; err != nil {
		return fmt.Errorf("failed to insert finance row for %s: %w", row.VINNumber, err)
	}
	row.FinanceID = fmt.Sprintf("%s%06d", prefix, row.ID)
	if err := tx.Model(row).Update("finance_id", row.FinanceID).Error; err != nil {
		return fmt.Errorf("failed to assign finance id for %s: %w", row.VINNumber, err)
	}
	return nil
}

// saleSnapshotRow derives one finance row from a sale. Sold deals get
// the full financial picture: 6% tax, a 5% card fee for Credit,
// installments paid to date for Loans. Anything not yet Sold is a
// partial row carrying only VIN, cost, price, and status.
func saleSnapshotRow(sale *models.Sale, cost float64, today time.Time) *models.FinanceRecord {
	saleID := sale.SaleID
	row := &models.FinanceRecord{
		SaleID:    &saleID,
		VINNumber: sale.VINNumber,
		Cost:      cost,
		SalePrice: sale.SalePrice,
		Status:    string(sale.Status),
	}
	if sale.Status != models.SaleStatusSold {
		return row
	}

	soldAt := sale.UpdatedAt
	if sale.StatusSoldAt != nil {
		soldAt = *sale.StatusSoldAt
	}
	saleDate := truncateToDay(soldAt)

	tax := loan.Round2(sale.SalePrice * taxRate)
	ccFee := 0.0
	if sale.PaymentMethod == models.PaymentMethodCredit {
		ccFee = loan.Round2(sale.SalePrice * creditFeeRate)
	}
	finalPrice := loan.Round2(sale.SalePrice + tax)

	amountPaid, amountRemaining := 0.0, 0.0
	if sale.PaymentMethod == models.PaymentMethodLoan && sale.TermMonths != nil && sale.MonthlyPayment != nil {
		monthsPaid := loan.MonthsPaidSince(saleDate, today, sale.TermMonths)
		amountPaid = loan.Round2(float64(monthsPaid) * *sale.MonthlyPayment)

		remaining := *sale.TermMonths - monthsPaid
		if remaining < 0 {
			remaining = 0
		}
		amountRemaining = loan.Round2(float64(remaining) * *sale.MonthlyPayment)
	}

	netProfit := loan.Round2(finalPrice - (ccFee + tax + cost))
	profitNow := 0.0
	switch sale.PaymentMethod {
	case models.PaymentMethodCash, models.PaymentMethodCredit:
		profitNow = netProfit
	case models.PaymentMethodLoan:
		profitNow = loan.Round2(amountPaid - cost)
	}

	paymentType := sale.PaymentMethod
	row.PaymentType = &paymentType
	if sale.Deposit != nil {
		row.Deposit = *sale.Deposit
	}
	row.LoanTerm = sale.TermMonths
	row.LoanInterest = sale.InterestRate
	row.MonthlyPayment = sale.MonthlyPayment
	row.CCFee = ccFee
	row.Tax = tax
	row.FinalSalePrice = finalPrice
	row.AmountPaid = amountPaid
	row.AmountRemaining = amountRemaining
	row.NetProfit = netProfit
	row.ProfitNow = profitNow
	row.SaleDate = &saleDate
	return row
}

// inventorySnapshotRow emits the partial row for a vehicle that never
// entered a negotiation.
func inventorySnapshotRow(inv *models.Inventory) *models.FinanceRecord {
	return &models.FinanceRecord{
		SaleID:    nil,
		VINNumber: inv.VINNumber,
		Cost:      inv.Cost,
		SalePrice: inv.SalePrice,
		Status:    string(inv.Status),
	}
}

// summarize folds unsold inventory and the sold snapshot rows into the
// dashboard aggregates. Loans only count installments actually paid as
// available funds; Cash and Credit deals count in full.
func summarize(unsold []models.Inventory, sold []models.FinanceRecord) models.FinanceSummary {
	var summary models.FinanceSummary

	for _, inv := range unsold {
		summary.TotalAssets += inv.Cost
		summary.ProjectedSale += inv.SalePrice
	}
	summary.ProjectedProfit = summary.ProjectedSale - summary.TotalAssets

	var costSold float64
	for _, f := range sold {
		summary.TotalFinalSold += f.FinalSalePrice
		summary.TotalTaxSold += f.Tax
		costSold += f.Cost

		if f.PaymentType == nil {
			continue
		}
		switch *f.PaymentType {
		case models.PaymentMethodCash, models.PaymentMethodCredit:
			summary.TotalAvailableFunds += f.FinalSalePrice
		case models.PaymentMethodLoan:
			summary.TotalAvailableFunds += f.AmountPaid
		}
	}
	summary.TotalProfitNow = summary.TotalAvailableFunds - costSold

	summary.TotalAssets = loan.Round2(summary.TotalAssets)
	summary.ProjectedSale = loan.Round2(summary.ProjectedSale)
	summary.ProjectedProfit = loan.Round2(summary.ProjectedProfit)
	summary.TotalFinalSold = loan.Round2(summary.TotalFinalSold)
	summary.TotalTaxSold = loan.Round2(summary.TotalTaxSold)
	summary.TotalAvailableFunds = loan.Round2(summary.TotalAvailableFunds)
	summary.TotalProfitNow = loan.Round2(summary.TotalProfitNow)
	return summary
}
