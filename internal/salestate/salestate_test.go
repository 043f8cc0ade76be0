// internal/salestate/salestate_test.go
package salestate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kucukkal/dealer-backend/internal/errs"
	"github.com/kucukkal/dealer-backend/internal/models"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }
func sp(v string) *string   { return &v }

func prevSale(status models.SaleStatus) *models.Sale {
	return &models.Sale{Status: status}
}

func cashUpdate(status models.SaleStatus, price float64) Update {
	return Update{
		Price:         price,
		Status:        status,
		PaymentMethod: models.PaymentMethodCash,
		Deposit:       fp(price * 0.10),
	}
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    models.SaleStatus
		to      models.SaleStatus
		allowed bool
	}{
		{"contract stays in contract", models.SaleStatusUnderContract, models.SaleStatusUnderContract, true},
		{"contract to writing", models.SaleStatusUnderContract, models.SaleStatusUnderWriting, true},
		{"contract straight to sold", models.SaleStatusUnderContract, models.SaleStatusSold, true},
		{"writing stays in writing", models.SaleStatusUnderWriting, models.SaleStatusUnderWriting, true},
		{"writing to sold", models.SaleStatusUnderWriting, models.SaleStatusSold, true},
		{"writing back to contract", models.SaleStatusUnderWriting, models.SaleStatusUnderContract, false},
		{"sold stays sold", models.SaleStatusSold, models.SaleStatusSold, true},
		{"sold back to contract", models.SaleStatusSold, models.SaleStatusUnderContract, false},
		{"sold back to writing", models.SaleStatusSold, models.SaleStatusUnderWriting, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(cashUpdate(tt.to, 20000), prevSale(tt.from))
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, errs.IsKind(err, errs.KindPolicy))
				assert.Contains(t, err.Error(), "invalid status change")
			}
		})
	}
}

func TestNewLoanSaleMustStartUnderContract(t *testing.T) {
	for _, status := range []models.SaleStatus{models.SaleStatusUnderWriting, models.SaleStatusSold} {
		u := Update{
			Price:         20000,
			Status:        status,
			PaymentMethod: models.PaymentMethodLoan,
			Deposit:       fp(2000),
			CreditScore:   sp("Good"),
			TermMonths:    ip(36),
		}
		_, err := Apply(u, nil)
		require.Error(t, err, "status %s", status)
		assert.True(t, errs.IsKind(err, errs.KindPolicy))
	}

	// Cash deals may start anywhere.
	_, err := Apply(cashUpdate(models.SaleStatusSold, 20000), nil)
	assert.NoError(t, err)
}

func TestUnderContractDepositRequiredForEveryMethod(t *testing.T) {
	for _, method := range []models.PaymentMethod{
		models.PaymentMethodCash,
		models.PaymentMethodCredit,
		models.PaymentMethodLoan,
	} {
		u := Update{
			Price:         20000,
			Status:        models.SaleStatusUnderContract,
			PaymentMethod: method,
			CreditScore:   sp("Good"),
			TermMonths:    ip(36),
		}
		_, err := Apply(u, nil)
		require.Error(t, err, "method %s", method)
		assert.True(t, errs.IsKind(err, errs.KindValidation))
		assert.Contains(t, err.Error(), "deposit is required")
	}
}

func TestUnderContractDepositFloor(t *testing.T) {
	u := cashUpdate(models.SaleStatusUnderContract, 20000)
	u.Deposit = fp(999) // below 5% of 20000

	_, err := Apply(u, nil)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindValidation))

	u.Deposit = fp(1000) // exactly 5%
	_, err = Apply(u, nil)
	assert.NoError(t, err)
}

func TestUnderContractLoanFieldContract(t *testing.T) {
	base := Update{
		Price:         20000,
		Status:        models.SaleStatusUnderContract,
		PaymentMethod: models.PaymentMethodLoan,
		Deposit:       fp(2000),
	}

	u := base
	u.TermMonths = ip(36)
	_, err := Apply(u, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credit score band is required")

	u = base
	u.CreditScore = sp("Excellent")
	_, err = Apply(u, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loan term")

	u = base
	u.CreditScore = sp("Excellent")
	u.TermMonths = ip(36)
	fields, err := Apply(u, nil)
	require.NoError(t, err)
	require.NotNil(t, fields.InterestRate, "interest should auto-fill from the band")
	assert.GreaterOrEqual(t, *fields.InterestRate, 0.0)
	assert.LessOrEqual(t, *fields.InterestRate, 0.9)
	assert.Nil(t, fields.MonthlyPayment, "no installment before underwriting")
}

func TestUnderContractKeepsSuppliedRate(t *testing.T) {
	u := Update{
		Price:         20000,
		Status:        models.SaleStatusUnderContract,
		PaymentMethod: models.PaymentMethodLoan,
		Deposit:       fp(2000),
		CreditScore:   sp("Poor"),
		TermMonths:    ip(36),
		InterestRate:  fp(3.25),
	}
	fields, err := Apply(u, nil)
	require.NoError(t, err)
	require.NotNil(t, fields.InterestRate)
	assert.Equal(t, 3.25, *fields.InterestRate)
}

func TestUnderWritingLoanBounds(t *testing.T) {
	prev := prevSale(models.SaleStatusUnderContract)
	base := Update{
		Price:         20000,
		Status:        models.SaleStatusUnderWriting,
		PaymentMethod: models.PaymentMethodLoan,
	}

	u := base
	u.Deposit = fp(500) // below 5%
	_, err := Apply(u, prev)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindValidation))

	u = base
	u.TermMonths = ip(11)
	_, err = Apply(u, prev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 12 and 48")

	u = base
	u.TermMonths = ip(49)
	_, err = Apply(u, prev)
	require.Error(t, err)

	// Both optional: a bare underwriting step is fine.
	_, err = Apply(base, prev)
	assert.NoError(t, err)
}

func TestUnderWritingComputesInstallment(t *testing.T) {
	u := Update{
		Price:         20000,
		Status:        models.SaleStatusUnderWriting,
		PaymentMethod: models.PaymentMethodLoan,
		Deposit:       fp(2000),
		InterestRate:  fp(6.0),
		TermMonths:    ip(36),
	}
	fields, err := Apply(u, prevSale(models.SaleStatusUnderContract))
	require.NoError(t, err)
	require.NotNil(t, fields.MonthlyPayment)
	assert.InDelta(t, 547.59, *fields.MonthlyPayment, 0.001)
}

func TestUnderWritingWithoutTermKeepsPriorInstallment(t *testing.T) {
	prev := prevSale(models.SaleStatusUnderWriting)
	prev.MonthlyPayment = fp(612.40)

	u := Update{
		Price:         20000,
		Status:        models.SaleStatusUnderWriting,
		PaymentMethod: models.PaymentMethodLoan,
		InterestRate:  fp(4.0),
	}
	fields, err := Apply(u, prev)
	require.NoError(t, err)
	require.NotNil(t, fields.MonthlyPayment)
	assert.Equal(t, 612.40, *fields.MonthlyPayment)
}

func TestUnderWritingCashClearsLoanFields(t *testing.T) {
	prev := prevSale(models.SaleStatusUnderContract)
	prev.MonthlyPayment = fp(547.59)

	u := Update{
		Price:         20000,
		Status:        models.SaleStatusUnderWriting,
		PaymentMethod: models.PaymentMethodCash,
		Deposit:       fp(2000),
		InterestRate:  fp(6.0),
		CreditScore:   sp("Good"),
		TermMonths:    ip(36),
	}
	fields, err := Apply(u, prev)
	require.NoError(t, err)
	assert.Nil(t, fields.Deposit)
	assert.Nil(t, fields.InterestRate)
	assert.Nil(t, fields.CreditScore)
	assert.Nil(t, fields.TermMonths)
	assert.Nil(t, fields.MonthlyPayment)
}

func TestSoldLoanRequiresEverythingAndComputes(t *testing.T) {
	prev := prevSale(models.SaleStatusUnderWriting)
	base := Update{
		Price:         20000,
		Status:        models.SaleStatusSold,
		PaymentMethod: models.PaymentMethodLoan,
	}

	u := base
	_, err := Apply(u, prev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deposit is required")

	u = base
	u.Deposit = fp(2000)
	_, err = Apply(u, prev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credit score band is required")

	u = base
	u.Deposit = fp(2000)
	u.CreditScore = sp("Good")
	_, err = Apply(u, prev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loan term")

	u = base
	u.Deposit = fp(2000)
	u.CreditScore = sp("Good")
	u.TermMonths = ip(36)
	u.InterestRate = fp(6.0)
	fields, err := Apply(u, prev)
	require.NoError(t, err)
	require.NotNil(t, fields.MonthlyPayment)
	assert.InDelta(t, 547.59, *fields.MonthlyPayment, 0.001)
}

func TestSoldCreditClearsLoanFields(t *testing.T) {
	u := Update{
		Price:         15000,
		Status:        models.SaleStatusSold,
		PaymentMethod: models.PaymentMethodCredit,
		Deposit:       fp(3000),
		CreditScore:   sp("Average"),
		TermMonths:    ip(24),
	}
	fields, err := Apply(u, prevSale(models.SaleStatusUnderWriting))
	require.NoError(t, err)
	assert.Nil(t, fields.Deposit)
	assert.Nil(t, fields.CreditScore)
	assert.Nil(t, fields.TermMonths)
	assert.Nil(t, fields.MonthlyPayment)
}

func TestUnknownBandRejected(t *testing.T) {
	u := Update{
		Price:         20000,
		Status:        models.SaleStatusUnderContract,
		PaymentMethod: models.PaymentMethodLoan,
		Deposit:       fp(2000),
		CreditScore:   sp("Platinum"),
		TermMonths:    ip(36),
	}
	_, err := Apply(u, nil)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindValidation))
}

func TestUnknownStatusRejected(t *testing.T) {
	u := cashUpdate("Pending", 20000)
	_, err := Apply(u, nil)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindValidation))
}

func TestInventoryStatusSideEffects(t *testing.T) {
	status, ok := InventoryStatusFor(models.SaleStatusUnderWriting)
	require.True(t, ok)
	assert.Equal(t, models.VehicleStatusUnderWriting, status)

	status, ok = InventoryStatusFor(models.SaleStatusSold)
	require.True(t, ok)
	assert.Equal(t, models.VehicleStatusSold, status)

	_, ok = InventoryStatusFor(models.SaleStatusUnderContract)
	assert.False(t, ok, "contract signing keeps the listing status")
}
