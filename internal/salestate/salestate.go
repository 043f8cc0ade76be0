// internal/salestate/salestate.go

// Package salestate is the negotiation state machine. It decides
// whether a status change is legal, enforces the per-status payment
// and loan field contracts, and produces the loan fields to persist on
// the sale row. It never touches storage; the sales service owns
// loading the previous row and writing the result back.
package salestate

import (
	"github.com/kucukkal/dealer-backend/internal/errs"
	"github.com/kucukkal/dealer-backend/internal/loan"
	"github.com/kucukkal/dealer-backend/internal/models"
)

// Update is one negotiation step: the validated price plus the
// caller-supplied status, payment method, and optional loan fields.
type Update struct {
	Price         float64
	Status        models.SaleStatus
	PaymentMethod models.PaymentMethod
	Deposit       *float64
	InterestRate  *float64
	CreditScore   *string
	TermMonths    *int
}

// Fields is what the state machine resolved for persistence. Loan
// fields may have been auto-filled (interest from the credit band) or
// force-cleared (Cash/Credit deals carry no loan data).
type Fields struct {
	Deposit        *float64
	InterestRate   *float64
	CreditScore    *string
	TermMonths     *int
	MonthlyPayment *float64
}

// Forward-only transitions. Staying in the same status is always a
// legal self-transition so repeated negotiation updates can keep
// amending the active record.
var allowedTransitions = map[models.SaleStatus]map[models.SaleStatus]bool{
	models.SaleStatusUnderContract: {
		models.SaleStatusUnderContract: true,
		models.SaleStatusUnderWriting:  true,
		models.SaleStatusSold:          true,
	},
	models.SaleStatusUnderWriting: {
		models.SaleStatusUnderWriting: true,
		models.SaleStatusSold:         true,
	},
	models.SaleStatusSold: {
		models.SaleStatusSold: true,
	},
}

const (
	minDepositFraction = 0.05
	minTermMonths      = 12
	maxTermMonths      = 48
)

// Apply runs one negotiation step against the previous active sale
// (nil when this VIN has no active negotiation) and returns the loan
// fields to store. The returned monthly payment starts from the
// previous row's value and only changes where a status rule says so.
func Apply(u Update, prev *models.Sale) (Fields, error) {
	f := Fields{
		Deposit:      u.Deposit,
		InterestRate: u.InterestRate,
		CreditScore:  u.CreditScore,
		TermMonths:   u.TermMonths,
	}
	if prev != nil {
		f.MonthlyPayment = prev.MonthlyPayment
	}

	if prev != nil {
		if next, known := allowedTransitions[prev.Status]; known && !next[u.Status] {
			return Fields{}, errs.Policyf("invalid status change from %s to %s", prev.Status, u.Status)
		}
	} else if u.PaymentMethod == models.PaymentMethodLoan && u.Status != models.SaleStatusUnderContract {
		return Fields{}, errs.Policyf("loan deals must start in Under Contract status")
	}

	switch u.Status {
	case models.SaleStatusUnderContract:
		// Deposit is due at contract signing for every payment method.
		if err := requireMinDeposit(f.Deposit, u.Price); err != nil {
			return Fields{}, err
		}
		if u.PaymentMethod == models.PaymentMethodLoan {
			if f.CreditScore == nil || *f.CreditScore == "" {
				return Fields{}, errs.Validationf("credit score band is required for Loan")
			}
			if f.TermMonths == nil {
				return Fields{}, errs.Validationf("loan term (months) is required for Loan")
			}
			if err := fillInterest(&f); err != nil {
				return Fields{}, err
			}
		}
		// No monthly payment yet in Under Contract.
		return f, nil

	case models.SaleStatusUnderWriting:
		if u.PaymentMethod != models.PaymentMethodLoan {
			clearLoanFields(&f)
			return f, nil
		}
		// Deposit and term are optional here but must be valid when present.
		if f.Deposit != nil && *f.Deposit < minDepositFraction*u.Price {
			return Fields{}, errs.Validationf("deposit must be at least 5%% of sale price")
		}
		if f.TermMonths != nil && (*f.TermMonths < minTermMonths || *f.TermMonths > maxTermMonths) {
			return Fields{}, errs.Validationf("loan term must be between %d and %d months", minTermMonths, maxTermMonths)
		}
		if f.CreditScore != nil && *f.CreditScore != "" && f.InterestRate == nil {
			if err := fillInterest(&f); err != nil {
				return Fields{}, err
			}
		}
		if f.InterestRate != nil && f.TermMonths != nil {
			principal := u.Price
			if f.Deposit != nil {
				principal -= *f.Deposit
			}
			payment, err := loan.MonthlyPayment(principal, *f.InterestRate, *f.TermMonths)
			if err != nil {
				return Fields{}, err
			}
			f.MonthlyPayment = &payment
		}
		return f, nil

	case models.SaleStatusSold:
		if u.PaymentMethod != models.PaymentMethodLoan {
			clearLoanFields(&f)
			return f, nil
		}
		if err := requireMinDeposit(f.Deposit, u.Price); err != nil {
			return Fields{}, err
		}
		if f.CreditScore == nil || *f.CreditScore == "" {
			return Fields{}, errs.Validationf("credit score band is required for Loan")
		}
		if f.TermMonths == nil {
			return Fields{}, errs.Validationf("loan term (months) is required for Loan")
		}
		if err := fillInterest(&f); err != nil {
			return Fields{}, err
		}
		payment, err := loan.MonthlyPayment(u.Price-*f.Deposit, *f.InterestRate, *f.TermMonths)
		if err != nil {
			return Fields{}, err
		}
		f.MonthlyPayment = &payment
		return f, nil
	}

	return Fields{}, errs.Validationf("unknown sale status %q", u.Status)
}

// InventoryStatusFor maps a sale status to the inventory status side
// effect it triggers. Under Contract leaves the vehicle's listing
// status alone.
func InventoryStatusFor(status models.SaleStatus) (models.VehicleStatus, bool) {
	switch status {
	case models.SaleStatusUnderWriting:
		return models.VehicleStatusUnderWriting, true
	case models.SaleStatusSold:
		return models.VehicleStatusSold, true
	}
	return "", false
}

func requireMinDeposit(deposit *float64, price float64) error {
	if deposit == nil {
		return errs.Validationf("deposit is required")
	}
	if *deposit < minDepositFraction*price {
		return errs.Validationf("deposit must be at least 5%% of sale price")
	}
	return nil
}

// fillInterest draws an interest rate from the credit band when the
// caller did not supply one.
func fillInterest(f *Fields) error {
	if f.InterestRate != nil {
		return nil
	}
	rate, err := loan.RandomInterestForBand(*f.CreditScore)
	if err != nil {
		return err
	}
	f.InterestRate = &rate
	return nil
}

func clearLoanFields(f *Fields) {
	f.Deposit = nil
	f.InterestRate = nil
	f.CreditScore = nil
	f.TermMonths = nil
	f.MonthlyPayment = nil
}
