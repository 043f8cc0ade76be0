// internal/pricing/pricing.go
package pricing

import (
	"math"
	"time"

	"github.com/kucukkal/dealer-backend/internal/errs"
	"github.com/kucukkal/dealer-backend/internal/models"
)

const (
	maxVehicleAgeYears = 25
	maxMileage         = 150000
)

// Quote is an accepted price change. Price is rounded to cents and is
// the value to persist; ProfitPercent is exact and unrounded, matching
// the stored price.
type Quote struct {
	Price         float64
	ProfitPercent float64
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ProfitPercent returns the exact margin for a cost/price pair. A
// non-positive cost yields 0 rather than an error; callers that require
// cost > 0 must check it themselves.
func ProfitPercent(cost, price float64) float64 {
	if cost <= 0 {
		return 0
	}
	return (price - cost) / cost * 100.0
}

// Minimum profit floors differ per role and per path. Creation and
// update give BuyerRep a 21.5% floor; batch import holds every
// non-admin role to 35%.
func MinProfitCreate(role models.Role) float64 {
	switch role {
	case models.RoleAdmin:
		return 5.0
	case models.RoleBuyerRep:
		return 21.5
	default:
		return 35.0
	}
}

func MinProfitImport(role models.Role) float64 {
	if role == models.RoleAdmin {
		return 5.0
	}
	return 35.0
}

func MinProfitUpdate(role models.Role) float64 {
	switch role {
	case models.RoleAdmin:
		return 5.0
	case models.RoleBuyerRep:
		return 21.5
	default:
		return 35.0
	}
}

// ValidateVehicle enforces the acquisition limits on age and mileage.
func ValidateVehicle(year, mileage int, today time.Time) error {
	if age := today.Year() - year; age > maxVehicleAgeYears {
		return errs.Policyf("vehicle age exceeds the %d year limit", maxVehicleAgeYears)
	}
	if mileage >= maxMileage {
		return errs.Policyf("mileage must be less than %d", maxMileage)
	}
	return nil
}

func checkAcquisition(minProfit, cost, price float64, year, mileage int, today time.Time) (Quote, error) {
	if err := ValidateVehicle(year, mileage, today); err != nil {
		return Quote{}, err
	}
	if cost <= 0 {
		return Quote{}, errs.Validationf("cost must be greater than 0")
	}
	if price <= 0 {
		return Quote{}, errs.Validationf("sale price must be greater than 0")
	}
	rounded := round2(price)
	profit := ProfitPercent(cost, rounded)
	if profit < minProfit {
		return Quote{}, errs.Policyf("profit below minimum threshold (%.1f%%)", minProfit)
	}
	return Quote{Price: rounded, ProfitPercent: profit}, nil
}

// Acquisition validates a single vehicle creation for the role.
func Acquisition(role models.Role, year, mileage int, cost, price float64, today time.Time) (Quote, error) {
	return checkAcquisition(MinProfitCreate(role), cost, price, year, mileage, today)
}

// ImportAcquisition validates one batch-imported vehicle row.
func ImportAcquisition(role models.Role, year, mileage int, cost, price float64, today time.Time) (Quote, error) {
	return checkAcquisition(MinProfitImport(role), cost, price, year, mileage, today)
}

// Reprice validates an inventory update carrying new cost, price,
// mileage or year values.
func Reprice(role models.Role, year, mileage int, cost, price float64, today time.Time) (Quote, error) {
	return checkAcquisition(MinProfitUpdate(role), cost, price, year, mileage, today)
}

// Negotiation validates a proposed sale price against the vehicle's
// cost and current listed price. Sales reps may discount at most 10%
// off the listed price and must keep a 20% margin; privileged roles
// only need to clear the 5% floor.
func Negotiation(role models.Role, cost, listedPrice, proposed float64) (Quote, error) {
	if proposed <= 0 {
		return Quote{}, errs.Validationf("sale price must be greater than 0")
	}
	rounded := round2(proposed)
	profit := ProfitPercent(cost, rounded)

	if role == models.RoleSalesRep {
		if rounded < listedPrice*0.90 {
			return Quote{}, errs.Policyf("sales rep cannot discount more than 10%%")
		}
		if profit < 20.0 {
			return Quote{}, errs.Policyf("profit must remain at least 20%% for sales reps")
		}
	} else {
		if profit < 5.0 {
			return Quote{}, errs.Policyf("profit below minimum threshold (5.0%%)")
		}
	}
	return Quote{Price: rounded, ProfitPercent: profit}, nil
}

// PromotionChange carries the one requested price mutation. Exactly one
// field must be set.
type PromotionChange struct {
	SalePrice       *float64
	DiscountPercent *float64
	RaisePercent    *float64
}

func (c PromotionChange) filled() int {
	n := 0
	if c.SalePrice != nil {
		n++
	}
	if c.DiscountPercent != nil {
		n++
	}
	if c.RaisePercent != nil {
		n++
	}
	return n
}

// Validate checks the exactly-one-field rule without evaluating the
// price itself, so callers can reject malformed requests before any
// lookup work.
func (c PromotionChange) Validate() error {
	if c.filled() != 1 {
		return errs.Validationf("exactly one of sale_price, discount_percent, or raise_percent must be provided")
	}
	return nil
}

// PromotionEligible rejects vehicles whose lifecycle state is owned by
// the service bay or the sales pipeline.
func PromotionEligible(status models.VehicleStatus) error {
	switch status {
	case models.VehicleStatusInService,
		models.VehicleStatusUnderContract,
		models.VehicleStatusUnderWriting,
		models.VehicleStatusSold:
		return errs.Policyf("vehicle status %q does not allow promotion pricing", status)
	}
	return nil
}

// Promotion validates a promotion price change. PR is capped at a 10%
// move per update and a 20% margin; Admin skips the cap but must keep
// 5%. Per-vehicle update quotas and location checks are enforced by the
// caller, which owns the inventory row.
func Promotion(role models.Role, change PromotionChange, cost, listedPrice float64) (Quote, error) {
	if err := change.Validate(); err != nil {
		return Quote{}, err
	}
	if cost <= 0 {
		return Quote{}, errs.Validationf("invalid cost for profit calculation")
	}

	var newPrice, changePercent float64
	switch {
	case change.SalePrice != nil:
		if *change.SalePrice <= 0 {
			return Quote{}, errs.Validationf("sale price must be greater than 0")
		}
		newPrice = round2(*change.SalePrice)
		changePercent = (newPrice - listedPrice) * 100.0 / listedPrice
	case change.DiscountPercent != nil:
		pct := *change.DiscountPercent
		if pct <= 0 || pct > 10 {
			return Quote{}, errs.Validationf("discount percent must be greater than 0 and at most 10")
		}
		newPrice = round2(listedPrice * (1 - pct/100.0))
		changePercent = -pct
	default:
		pct := *change.RaisePercent
		if pct <= 0 || pct > 10 {
			return Quote{}, errs.Validationf("raise percent must be greater than 0 and at most 10")
		}
		newPrice = round2(listedPrice * (1 + pct/100.0))
		changePercent = pct
	}

	profit := ProfitPercent(cost, newPrice)

	if role == models.RolePR {
		if math.Abs(changePercent) > 10.0 {
			return Quote{}, errs.Policyf("price change exceeds the allowed 10%% limit")
		}
		if profit < 20.0 {
			return Quote{}, errs.Policyf("profit margin cannot drop below 20%%")
		}
	} else {
		if profit < 5.0 {
			return Quote{}, errs.Policyf("profit below minimum threshold (5.0%%)")
		}
	}
	return Quote{Price: newPrice, ProfitPercent: profit}, nil
}
