// internal/pricing/pricing_test.go
package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kucukkal/dealer-backend/internal/errs"
	"github.com/kucukkal/dealer-backend/internal/models"
)

var today = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func floatPtr(v float64) *float64 { return &v }

func TestProfitPercent(t *testing.T) {
	assert.Equal(t, 50.0, ProfitPercent(10000, 15000))
	assert.Equal(t, 0.0, ProfitPercent(0, 15000))
	assert.Equal(t, 0.0, ProfitPercent(-100, 15000))
	assert.InDelta(t, 21.5, ProfitPercent(10000, 12150), 1e-9)
}

func TestProfitFloors(t *testing.T) {
	assert.Equal(t, 5.0, MinProfitCreate(models.RoleAdmin))
	assert.Equal(t, 21.5, MinProfitCreate(models.RoleBuyerRep))
	assert.Equal(t, 35.0, MinProfitCreate(models.RoleFinance))

	assert.Equal(t, 5.0, MinProfitImport(models.RoleAdmin))
	assert.Equal(t, 35.0, MinProfitImport(models.RoleBuyerRep))

	assert.Equal(t, 5.0, MinProfitUpdate(models.RoleAdmin))
	assert.Equal(t, 21.5, MinProfitUpdate(models.RoleBuyerRep))
	assert.Equal(t, 35.0, MinProfitUpdate(models.RoleSalesRep))
}

func TestValidateVehicle(t *testing.T) {
	assert.NoError(t, ValidateVehicle(2020, 40000, today))
	assert.NoError(t, ValidateVehicle(1999, 40000, today))

	err := ValidateVehicle(1998, 40000, today)
	require.Error(t, err)
	assert.Equal(t, errs.KindPolicy, errs.KindOf(err))

	err = ValidateVehicle(2020, 150000, today)
	require.Error(t, err)
	assert.Equal(t, errs.KindPolicy, errs.KindOf(err))

	assert.NoError(t, ValidateVehicle(2020, 149999, today))
}

func TestAcquisition(t *testing.T) {
	t.Run("accepts at the role floor", func(t *testing.T) {
		q, err := Acquisition(models.RoleBuyerRep, 2020, 30000, 10000, 12150, today)
		require.NoError(t, err)
		assert.Equal(t, 12150.0, q.Price)
		assert.InDelta(t, 21.5, q.ProfitPercent, 1e-9)
	})

	t.Run("rejects below the role floor", func(t *testing.T) {
		_, err := Acquisition(models.RoleBuyerRep, 2020, 30000, 10000, 12100, today)
		require.Error(t, err)
		assert.Equal(t, errs.KindPolicy, errs.KindOf(err))

		// Same price clears the Admin floor.
		q, err := Acquisition(models.RoleAdmin, 2020, 30000, 10000, 12100, today)
		require.NoError(t, err)
		assert.InDelta(t, 21.0, q.ProfitPercent, 1e-9)
	})

	t.Run("import holds everyone but admin to 35", func(t *testing.T) {
		_, err := ImportAcquisition(models.RoleBuyerRep, 2020, 30000, 10000, 12150, today)
		require.Error(t, err)
		assert.Equal(t, errs.KindPolicy, errs.KindOf(err))

		q, err := ImportAcquisition(models.RoleBuyerRep, 2020, 30000, 10000, 13500, today)
		require.NoError(t, err)
		assert.Equal(t, 13500.0, q.Price)
	})

	t.Run("rejects non-positive cost and price", func(t *testing.T) {
		_, err := Acquisition(models.RoleAdmin, 2020, 30000, 0, 12000, today)
		require.Error(t, err)
		assert.Equal(t, errs.KindValidation, errs.KindOf(err))

		_, err = Acquisition(models.RoleAdmin, 2020, 30000, 10000, 0, today)
		require.Error(t, err)
		assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	})

	t.Run("rejects old or high mileage vehicles", func(t *testing.T) {
		_, err := Acquisition(models.RoleAdmin, 1990, 30000, 10000, 20000, today)
		require.Error(t, err)
		assert.Equal(t, errs.KindPolicy, errs.KindOf(err))

		_, err = Acquisition(models.RoleAdmin, 2020, 160000, 10000, 20000, today)
		require.Error(t, err)
		assert.Equal(t, errs.KindPolicy, errs.KindOf(err))
	})

	t.Run("price rounded to cents", func(t *testing.T) {
		q, err := Reprice(models.RoleAdmin, 2020, 30000, 10000, 12345.678, today)
		require.NoError(t, err)
		assert.Equal(t, 12345.68, q.Price)
	})
}

func TestNegotiation(t *testing.T) {
	const cost, listed = 10000.0, 15000.0

	t.Run("sales rep within discount and margin", func(t *testing.T) {
		q, err := Negotiation(models.RoleSalesRep, cost, listed, 13500)
		require.NoError(t, err)
		assert.Equal(t, 13500.0, q.Price)
		assert.InDelta(t, 35.0, q.ProfitPercent, 1e-9)
	})

	t.Run("sales rep discount capped at 10 percent", func(t *testing.T) {
		_, err := Negotiation(models.RoleSalesRep, cost, listed, 13499.99)
		require.Error(t, err)
		assert.Equal(t, errs.KindPolicy, errs.KindOf(err))
	})

	t.Run("exact discount and margin boundary accepted", func(t *testing.T) {
		// 13500 is exactly 10% off the listing and exactly 20% over cost.
		q, err := Negotiation(models.RoleSalesRep, 11250, listed, 13500)
		require.NoError(t, err)
		assert.Equal(t, 13500.0, q.Price)
		assert.InDelta(t, 20.0, q.ProfitPercent, 1e-9)
	})

	t.Run("sales rep margin floor is 20 percent", func(t *testing.T) {
		// 10% off a thin listing keeps the discount legal but breaks the margin.
		_, err := Negotiation(models.RoleSalesRep, 12000, 13000, 12500)
		require.Error(t, err)
		assert.Equal(t, errs.KindPolicy, errs.KindOf(err))
	})

	t.Run("privileged roles skip the discount cap", func(t *testing.T) {
		q, err := Negotiation(models.RoleFinance, cost, listed, 10500)
		require.NoError(t, err)
		assert.Equal(t, 10500.0, q.Price)

		_, err = Negotiation(models.RoleAdmin, cost, listed, 10400)
		require.Error(t, err)
		assert.Equal(t, errs.KindPolicy, errs.KindOf(err))
	})

	t.Run("rejects non-positive price", func(t *testing.T) {
		_, err := Negotiation(models.RoleAdmin, cost, listed, 0)
		require.Error(t, err)
		assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	})
}

func TestPromotionEligible(t *testing.T) {
	assert.NoError(t, PromotionEligible(models.VehicleStatusAvailable))

	for _, status := range []models.VehicleStatus{
		models.VehicleStatusInService,
		models.VehicleStatusUnderContract,
		models.VehicleStatusUnderWriting,
		models.VehicleStatusSold,
	} {
		err := PromotionEligible(status)
		require.Error(t, err, string(status))
		assert.Equal(t, errs.KindPolicy, errs.KindOf(err))
	}
}

func TestPromotion(t *testing.T) {
	const cost, listed = 10000.0, 15000.0

	t.Run("requires exactly one change field", func(t *testing.T) {
		_, err := Promotion(models.RolePR, PromotionChange{}, cost, listed)
		require.Error(t, err)
		assert.Equal(t, errs.KindValidation, errs.KindOf(err))

		_, err = Promotion(models.RolePR, PromotionChange{
			SalePrice:       floatPtr(14000),
			DiscountPercent: floatPtr(5),
		}, cost, listed)
		require.Error(t, err)
		assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	})

	t.Run("discount percent applied", func(t *testing.T) {
		q, err := Promotion(models.RolePR, PromotionChange{DiscountPercent: floatPtr(5)}, cost, listed)
		require.NoError(t, err)
		assert.Equal(t, 14250.0, q.Price)
		assert.InDelta(t, 42.5, q.ProfitPercent, 1e-9)
	})

	t.Run("raise percent applied", func(t *testing.T) {
		q, err := Promotion(models.RolePR, PromotionChange{RaisePercent: floatPtr(10)}, cost, listed)
		require.NoError(t, err)
		assert.Equal(t, 16500.0, q.Price)
	})

	t.Run("percent forms bounded for every role", func(t *testing.T) {
		for _, role := range []models.Role{models.RolePR, models.RoleAdmin} {
			_, err := Promotion(role, PromotionChange{DiscountPercent: floatPtr(11)}, cost, listed)
			require.Error(t, err, string(role))
			assert.Equal(t, errs.KindValidation, errs.KindOf(err))

			_, err = Promotion(role, PromotionChange{RaisePercent: floatPtr(0)}, cost, listed)
			require.Error(t, err, string(role))
			assert.Equal(t, errs.KindValidation, errs.KindOf(err))
		}
	})

	t.Run("pr absolute price capped at 10 percent move", func(t *testing.T) {
		_, err := Promotion(models.RolePR, PromotionChange{SalePrice: floatPtr(16501)}, cost, listed)
		require.Error(t, err)
		assert.Equal(t, errs.KindPolicy, errs.KindOf(err))

		_, err = Promotion(models.RolePR, PromotionChange{SalePrice: floatPtr(13499)}, cost, listed)
		require.Error(t, err)
		assert.Equal(t, errs.KindPolicy, errs.KindOf(err))

		q, err := Promotion(models.RolePR, PromotionChange{SalePrice: floatPtr(16500)}, cost, listed)
		require.NoError(t, err)
		assert.Equal(t, 16500.0, q.Price)
	})

	t.Run("pr margin floor is 20 percent", func(t *testing.T) {
		_, err := Promotion(models.RolePR, PromotionChange{SalePrice: floatPtr(11900)}, 11000, 12000)
		require.Error(t, err)
		assert.Equal(t, errs.KindPolicy, errs.KindOf(err))
	})

	t.Run("admin skips cap and quota but keeps 5 percent floor", func(t *testing.T) {
		q, err := Promotion(models.RoleAdmin, PromotionChange{SalePrice: floatPtr(25000)}, cost, listed)
		require.NoError(t, err)
		assert.Equal(t, 25000.0, q.Price)

		_, err = Promotion(models.RoleAdmin, PromotionChange{SalePrice: floatPtr(10400)}, cost, listed)
		require.Error(t, err)
		assert.Equal(t, errs.KindPolicy, errs.KindOf(err))
	})

	t.Run("rejects invalid cost", func(t *testing.T) {
		_, err := Promotion(models.RolePR, PromotionChange{DiscountPercent: floatPtr(5)}, 0, listed)
		require.Error(t, err)
		assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	})
}
