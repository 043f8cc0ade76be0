// internal/services/sales_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kucukkal/dealer-backend/internal/cache"
	"github.com/kucukkal/dealer-backend/internal/errs"
	"github.com/kucukkal/dealer-backend/internal/models"
	"github.com/kucukkal/dealer-backend/internal/pricing"
	"github.com/kucukkal/dealer-backend/internal/salestate"
	"github.com/kucukkal/dealer-backend/internal/utils"
	"github.com/kucukkal/dealer-backend/internal/vinlock"
)

type SalesService struct {
	db           *gorm.DB
	locker       *vinlock.Locker
	payments     *PaymentService
	summaryCache *cache.SummaryCache
}

// NegotiationRequest is the full payload of one negotiation step. Every
// update overwrites the active sale's fields with these values; there
// is no partial patching of a sale.
type NegotiationRequest struct {
	VINNumber     string   `json:"vin_number" validate:"required"`
	SalePrice     float64  `json:"sale_price"`
	Status        string   `json:"status" validate:"required,sale_status"`
	PaymentMethod string   `json:"payment_method" validate:"required,payment_method"`
	Deposit       *float64 `json:"deposit,omitempty"`
	InterestRate  *float64 `json:"interest_rate,omitempty"`
	CreditScore   *string  `json:"credit_score,omitempty"`
	TermMonths    *int     `json:"term_months,omitempty"`
}

// SaleListItem joins a sale with its vehicle's location for listings.
type SaleListItem struct {
	SaleID         string   `json:"sale_id"`
	VINNumber      string   `json:"vin_number" gorm:"column:vin_number"`
	SalePrice      float64  `json:"sale_price"`
	Status         string   `json:"status"`
	PaymentMethod  string   `json:"payment_method"`
	Deposit        *float64 `json:"deposit"`
	InterestRate   *float64 `json:"interest_rate"`
	CreditScore    *string  `json:"credit_score"`
	TermMonths     *int     `json:"term_months"`
	MonthlyPayment *float64 `json:"monthly_payment"`
	Location       string   `json:"location"`
}

// InventorySearchFilters narrows the pre-sale vehicle search. Range
// bounds are inclusive and may be given one-sided.
type InventorySearchFilters struct {
	VIN           string
	Make          string
	Model         string
	ConditionType string
	YearMin       *int
	YearMax       *int
	MileageMin    *int
	MileageMax    *int
	PriceMin      *float64
	PriceMax      *float64
}

func NewSalesService(db *gorm.DB, locker *vinlock.Locker, payments *PaymentService, summaryCache *cache.SummaryCache) *SalesService {
	return &SalesService{
		db:           db,
		locker:       locker,
		payments:     payments,
		summaryCache: summaryCache,
	}
}

// List returns sales joined with vehicle locations. Sales reps only
// see deals for vehicles in their own location.
func (s *SalesService) List(role models.Role, location string, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Sale{}).
		Select("sales.sale_id, sales.vin_number, sales.sale_price, sales.status, sales.payment_method, sales.deposit, sales.interest_rate, sales.credit_score, sales.term_months, sales.monthly_payment, inventory.location").
		Joins("JOIN inventory ON inventory.vin_number = sales.vin_number")

	if !role.Privileged() {
		query = query.Where("inventory.location = ?", location)
	}
	if params.Status != "" {
		query = query.Where("sales.status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count sales: %w", err)
	}

	var items []SaleListItem
	err := utils.ApplyPagination(query.Order("sales.created_at DESC"), params).Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	result := utils.CreatePaginationResult(items, total, params)
	return &result, nil
}

// SearchInventory finds vehicles that can enter a negotiation: anything
// not yet Sold, optionally narrowed by identity and range filters.
func (s *SalesService) SearchInventory(role models.Role, location string, f InventorySearchFilters) ([]models.Inventory, error) {
	query := s.db.Model(&models.Inventory{}).
		Where("status <> ?", models.VehicleStatusSold)

	if !role.Privileged() {
		query = query.Where("location = ?", location)
	}

	if f.VIN != "" {
		query = query.Where("vin_number ILIKE ?", "%"+f.VIN+"%")
	}
	if f.Make != "" {
		query = query.Where("make ILIKE ?", "%"+f.Make+"%")
	}
	if f.Model != "" {
		query = query.Where("model ILIKE ?", "%"+f.Model+"%")
	}
	if f.ConditionType != "" {
		query = query.Where("condition_type ILIKE ?", "%"+f.ConditionType+"%")
	}

	if f.YearMin != nil {
		query = query.Where("year >= ?", *f.YearMin)
	}
	if f.YearMax != nil {
		query = query.Where("year <= ?", *f.YearMax)
	}
	if f.MileageMin != nil {
		query = query.Where("mileage >= ?", *f.MileageMin)
	}
	if f.MileageMax != nil {
		query = query.Where("mileage <= ?", *f.MileageMax)
	}
	if f.PriceMin != nil {
		query = query.Where("sale_price >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		query = query.Where("sale_price <= ?", *f.PriceMax)
	}

	var cars []models.Inventory
	if err := query.Order("year DESC").Find(&cars).Error; err != nil {
		return nil, fmt.Errorf("failed to search inventory: %w", err)
	}
	return cars, nil
}

// Upsert creates or advances the active negotiation for a VIN. The
// whole step runs under the VIN lock: price validation, the state
// machine, the sale write, and the inventory side effect, so two
// concurrent negotiations for one vehicle serialize instead of racing.
func (s *SalesService) Upsert(role models.Role, location, username string, req *NegotiationRequest) (*models.Sale, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	unlock := s.locker.Lock(req.VINNumber)
	defer unlock()

	var inv models.Inventory
	if err := s.db.Where("vin_number = ?", req.VINNumber).First(&inv).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.NotFoundf("car not found in inventory")
		}
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}

	if !role.Privileged() && inv.Location != location {
		return nil, errs.Permissionf("not enough permissions for this location")
	}

	// Sold is terminal for the vehicle, not just for its sale row.
	if inv.Status == models.VehicleStatusSold {
		return nil, errs.Policyf("this car has already been sold")
	}

	quote, err := pricing.Negotiation(role, inv.Cost, inv.SalePrice, req.SalePrice)
	if err != nil {
		return nil, err
	}

	var sale *models.Sale
	var existing models.Sale
	err = s.db.Where("vin_number = ? AND status <> ?", req.VINNumber, models.SaleStatusSold).
		First(&existing).Error
	switch {
	case err == nil:
		sale = &existing
	case err == gorm.ErrRecordNotFound:
		sale = nil
	default:
		return nil, fmt.Errorf("failed to load sale: %w", err)
	}

	update := salestate.Update{
		Price:         quote.Price,
		Status:        models.SaleStatus(req.Status),
		PaymentMethod: models.PaymentMethod(req.PaymentMethod),
		Deposit:       req.Deposit,
		InterestRate:  req.InterestRate,
		CreditScore:   req.CreditScore,
		TermMonths:    req.TermMonths,
	}
	fields, err := salestate.Apply(update, sale)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	created := sale == nil

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if created {
			sale = &models.Sale{
				SaleID:        "",
				VINNumber:     req.VINNumber,
				SalePrice:     quote.Price,
				Status:        update.Status,
				PaymentMethod: update.PaymentMethod,
			}
			applySaleFields(sale, fields)
			stampStatus(sale, update.Status, now)

			if err := tx.Create(sale).Error; err != nil {
				return fmt.Errorf("failed to create sale: %w", err)
			}
			sale.SaleID = businessID(now, sale.ID)
			if err := tx.Model(sale).Update("sale_id", sale.SaleID).Error; err != nil {
				return fmt.Errorf("failed to assign sale id: %w", err)
			}
		} else {
			sale.SalePrice = quote.Price
			sale.Status = update.Status
			sale.PaymentMethod = update.PaymentMethod
			applySaleFields(sale, fields)
			stampStatus(sale, update.Status, now)

			if err := tx.Save(sale).Error; err != nil {
				return fmt.Errorf("failed to update sale: %w", err)
			}
		}

		if newStatus, ok := salestate.InventoryStatusFor(update.Status); ok {
			err := tx.Model(&models.Inventory{}).
				Where("vin_number = ?", req.VINNumber).
				Update("status", newStatus).Error
			if err != nil {
				return fmt.Errorf("failed to update inventory status: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.collectCardDeposit(sale, created, username)

	if err := s.summaryCache.Invalidate(context.Background()); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate finance summary cache")
	}
	return sale, nil
}

// CleanupStalled is the morning sweep entry point: negotiations parked
// in Under Writing for more than three days are abandoned. The vehicle
// returns to the Available pool, any card deposit is refunded, and the
// sale row is deleted outright. Items are processed independently so
// one failure never stalls the rest.
func (s *SalesService) CleanupStalled() (deletedSaleIDs []string, refunded, failures int) {
	cutoff := time.Now().AddDate(0, 0, -3)

	var stalled []models.Sale
	err := s.db.
		Where("status = ? AND status_under_writing_at IS NOT NULL AND status_under_writing_at < ?",
			models.SaleStatusUnderWriting, cutoff).
		Find(&stalled).Error
	if err != nil {
		logrus.WithError(err).Error("Stalled negotiation sweep could not load sales")
		return nil, 0, 1
	}

	for i := range stalled {
		sale := &stalled[i]
		didRefund, err := s.abandonStalled(sale)
		if err != nil {
			failures++
			logrus.WithError(err).WithFields(logrus.Fields{
				"sale_id":    sale.SaleID,
				"vin_number": sale.VINNumber,
			}).Error("Stalled negotiation sweep failed for sale")
			continue
		}
		if didRefund {
			refunded++
		}
		deletedSaleIDs = append(deletedSaleIDs, sale.SaleID)
	}

	if len(deletedSaleIDs) > 0 {
		if err := s.summaryCache.Invalidate(context.Background()); err != nil {
			logrus.WithError(err).Warn("Failed to invalidate finance summary cache")
		}
	}
	if len(deletedSaleIDs) > 0 || failures > 0 {
		logrus.WithFields(logrus.Fields{
			"deleted":  len(deletedSaleIDs),
			"refunded": refunded,
			"failures": failures,
		}).Info("Stalled negotiation sweep finished")
	}
	return deletedSaleIDs, refunded, failures
}

// abandonStalled reverses one stalled negotiation under its VIN lock.
// A failed deposit refund is logged and the cleanup proceeds; a vehicle
// already gone from inventory is not an error.
func (s *SalesService) abandonStalled(sale *models.Sale) (didRefund bool, err error) {
	unlock := s.locker.Lock(sale.VINNumber)
	defer unlock()

	if sale.PaymentRef != "" {
		if err := s.payments.RefundDeposit(sale.PaymentRef); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"sale_id":     sale.SaleID,
				"payment_ref": sale.PaymentRef,
			}).Error("Failed to refund deposit for stalled sale")
		} else {
			didRefund = true
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Inventory{}).
			Where("vin_number = ?", sale.VINNumber).
			Update("status", models.VehicleStatusAvailable).Error
		if err != nil {
			return fmt.Errorf("failed to restore inventory: %w", err)
		}
		if err := tx.Delete(sale).Error; err != nil {
			return fmt.Errorf("failed to delete sale: %w", err)
		}
		return nil
	})
	return didRefund, err
}

// collectCardDeposit opens a payment intent for the contract deposit
// on newly created card-financed deals. Failures are logged, not
// surfaced: the sale itself already committed and the deposit can be
// collected out of band.
func (s *SalesService) collectCardDeposit(sale *models.Sale, created bool, username string) {
	if !created || sale.PaymentMethod != models.PaymentMethodCredit {
		return
	}
	if sale.Deposit == nil || *sale.Deposit <= 0 {
		return
	}

	intent, err := s.payments.CreateDepositIntent(sale.VINNumber, sale.SaleID, username, *sale.Deposit)
	if err != nil {
		logrus.WithError(err).WithField("sale_id", sale.SaleID).Warn("Failed to create deposit payment intent")
		return
	}
	if intent == nil {
		return
	}

	sale.PaymentRef = intent.Ref
	if err := s.db.Model(sale).Update("payment_ref", intent.Ref).Error; err != nil {
		logrus.WithError(err).WithField("sale_id", sale.SaleID).Warn("Failed to store deposit payment reference")
	}
}

func applySaleFields(sale *models.Sale, f salestate.Fields) {
	sale.Deposit = f.Deposit
	sale.InterestRate = f.InterestRate
	sale.CreditScore = f.CreditScore
	sale.TermMonths = f.TermMonths
	sale.MonthlyPayment = f.MonthlyPayment
}

// stampStatus records the first entry into each status. Timestamps are
// write-once: re-entering the same status on a later update keeps the
// original time.
func stampStatus(sale *models.Sale, status models.SaleStatus, now time.Time) {
	switch status {
	case models.SaleStatusUnderContract:
		if sale.StatusUnderContractAt == nil {
			sale.StatusUnderContractAt = &now
		}
	case models.SaleStatusUnderWriting:
		if sale.StatusUnderWritingAt == nil {
			sale.StatusUnderWritingAt = &now
		}
	case models.SaleStatusSold:
		if sale.StatusSoldAt == nil {
			sale.StatusSoldAt = &now
		}
	}
}
