// internal/services/promotion_service.go
package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kucukkal/dealer-backend/internal/cache"
	"github.com/kucukkal/dealer-backend/internal/errs"
	"github.com/kucukkal/dealer-backend/internal/models"
	"github.com/kucukkal/dealer-backend/internal/pricing"
	"github.com/kucukkal/dealer-backend/internal/utils"
	"github.com/kucukkal/dealer-backend/internal/vinlock"
)

// PR may successfully reprice each vehicle at most this many times.
const maxPRUpdatesPerVehicle = 2

type PromotionService struct {
	db           *gorm.DB
	locker       *vinlock.Locker
	summaryCache *cache.SummaryCache
}

type PromotionPriceRequest struct {
	VINNumber       string   `json:"vin_number" validate:"required"`
	SalePrice       *float64 `json:"sale_price,omitempty"`
	DiscountPercent *float64 `json:"discount_percent,omitempty"`
	RaisePercent    *float64 `json:"raise_percent,omitempty"`
}

type PromotionPriceResult struct {
	Detail           string  `json:"detail"`
	VINNumber        string  `json:"vin_number"`
	NewSalePrice     float64 `json:"new_sale_price"`
	NewProfitPercent float64 `json:"new_profit_percent"`
}

// PromotionCar is the pricing-view projection of an inventory row.
type PromotionCar struct {
	VINNumber     string  `json:"vin_number"`
	Make          string  `json:"make"`
	Model         string  `json:"model"`
	Year          int     `json:"year"`
	Mileage       int     `json:"mileage"`
	ConditionType string  `json:"condition_type"`
	Cost          float64 `json:"cost"`
	SalePrice     float64 `json:"sale_price"`
	Status        string  `json:"status"`
	Location      string  `json:"location"`
	PRUpdateCount int     `json:"pr_update_count"`
}

func NewPromotionService(db *gorm.DB, locker *vinlock.Locker, summaryCache *cache.SummaryCache) *PromotionService {
	return &PromotionService{db: db, locker: locker, summaryCache: summaryCache}
}

// GroupedInventory returns promotable vehicles grouped by location.
// Vehicles in the sales pipeline are always hidden; cars in the
// workshop appear only when includeService is set, and stay
// non-editable either way. Both PR and Admin see every location here;
// the update endpoint enforces PR's own-location rule.
func (s *PromotionService) GroupedInventory(includeService bool) (map[string][]PromotionCar, error) {
	query := s.db.Model(&models.Inventory{}).
		Where("status NOT IN ?", []models.VehicleStatus{
			models.VehicleStatusUnderContract,
			models.VehicleStatusSold,
		})
	if !includeService {
		query = query.Where("status <> ?", models.VehicleStatusInService)
	}

	var cars []models.Inventory
	if err := query.Order("location, vin_number").Find(&cars).Error; err != nil {
		return nil, fmt.Errorf("failed to load promotion inventory: %w", err)
	}

	grouped := make(map[string][]PromotionCar)
	for _, car := range cars {
		loc := car.Location
		if loc == "" {
			loc = "Unknown"
		}
		grouped[loc] = append(grouped[loc], PromotionCar{
			VINNumber:     car.VINNumber,
			Make:          car.Make,
			Model:         car.Model,
			Year:          car.Year,
			Mileage:       car.Mileage,
			ConditionType: string(car.ConditionType),
			Cost:          car.Cost,
			SalePrice:     car.SalePrice,
			Status:        string(car.Status),
			Location:      car.Location,
			PRUpdateCount: car.PRUpdateCount,
		})
	}
	return grouped, nil
}

// UpdatePrice applies one promotion price change. PR updates burn one
// unit of the per-vehicle quota, enforced by a conditional increment
// so the cap holds even across racing requests.
func (s *PromotionService) UpdatePrice(role models.Role, location string, req *PromotionPriceRequest) (*PromotionPriceResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	change := pricing.PromotionChange{
		SalePrice:       req.SalePrice,
		DiscountPercent: req.DiscountPercent,
		RaisePercent:    req.RaisePercent,
	}
	if err := change.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locker.Lock(req.VINNumber)
	defer unlock()

	var car models.Inventory
	if err := s.db.Where("vin_number = ?", req.VINNumber).First(&car).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.NotFoundf("car not found for given VIN")
		}
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}

	if role == models.RolePR && car.Location != location {
		return nil, errs.Permissionf("VIN does not belong to your location")
	}

	if err := pricing.PromotionEligible(car.Status); err != nil {
		return nil, err
	}

	quote, err := pricing.Promotion(role, change, car.Cost, car.SalePrice)
	if err != nil {
		return nil, err
	}

	if role == models.RolePR {
		// Success also consumes quota, so price write and counter
		// increment go together in one conditional update.
		res := s.db.Model(&models.Inventory{}).
			Where("vin_number = ? AND pr_update_count < ?", req.VINNumber, maxPRUpdatesPerVehicle).
			Updates(map[string]interface{}{
				"sale_price":      quote.Price,
				"profit_percent":  quote.ProfitPercent,
				"pr_update_count": gorm.Expr("pr_update_count + 1"),
			})
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update price: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, errs.Policyf("PR has reached the maximum number of price updates for this car")
		}
	} else {
		err := s.db.Model(&car).Updates(map[string]interface{}{
			"sale_price":     quote.Price,
			"profit_percent": quote.ProfitPercent,
		}).Error
		if err != nil {
			return nil, fmt.Errorf("failed to update price: %w", err)
		}
	}

	if err := s.summaryCache.Invalidate(context.Background()); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate finance summary cache")
	}

	return &PromotionPriceResult{
		Detail:           "Price updated successfully",
		VINNumber:        req.VINNumber,
		NewSalePrice:     quote.Price,
		NewProfitPercent: quote.ProfitPercent,
	}, nil
}
