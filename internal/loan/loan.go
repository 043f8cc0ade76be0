// internal/loan/loan.go
package loan

import (
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/kucukkal/dealer-backend/internal/errs"
)

// Credit score band → annual interest range, in percent.
var creditBands = map[string][2]float64{
	"excellent": {0.0, 0.9},
	"very good": {1.0, 2.0},
	"good":      {2.0, 5.0},
	"average":   {5.0, 7.0},
	"poor":      {7.0, 10.0},
}

// randFloat is swappable in tests for deterministic draws.
var randFloat = rand.Float64

// Round2 rounds to 2 decimal places, half away from zero. All monetary
// amounts pass through this before being stored or returned.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MonthlyPayment computes a fixed monthly installment for the given
// principal, annual interest rate (percent) and term. A non-positive
// rate means an interest-free straight-line split.
func MonthlyPayment(principal, annualRate float64, termMonths int) (float64, error) {
	if termMonths <= 0 {
		return 0, errs.Validationf("loan term must be a positive number of months")
	}
	if annualRate <= 0 {
		return Round2(principal / float64(termMonths)), nil
	}
	monthlyRate := annualRate / 100.0 / 12.0
	payment := principal * monthlyRate / (1 - math.Pow(1+monthlyRate, -float64(termMonths)))
	return Round2(payment), nil
}

// RandomInterestForBand draws a uniform annual rate from the range
// assigned to the credit score band. Band matching is case-insensitive.
func RandomInterestForBand(band string) (float64, error) {
	bounds, ok := creditBands[strings.ToLower(strings.TrimSpace(band))]
	if !ok {
		return 0, errs.Validationf("invalid credit score band %q", band)
	}
	low, high := bounds[0], bounds[1]
	return Round2(low + randFloat()*(high-low)), nil
}

// MonthsPaidSince counts loan installments paid between saleDate and
// today. Installments fall due on the 10th of each calendar month; the
// first due date is the earliest 10th on or after the sale date. The
// result never exceeds the term and is never negative.
func MonthsPaidSince(saleDate, today time.Time, termMonths *int) int {
	if termMonths == nil || *termMonths <= 0 {
		return 0
	}

	sy, sm, sd := saleDate.Date()
	ty, tm, td := today.Date()
	sale := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	now := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	if sale.After(now) {
		return 0
	}

	firstDue := time.Date(sy, sm, 10, 0, 0, 0, 0, time.UTC)
	if sd > 10 {
		firstDue = firstDue.AddDate(0, 1, 0)
	}
	if now.Before(firstDue) {
		return 0
	}

	months := (ty-firstDue.Year())*12 + int(tm) - int(firstDue.Month())
	if td >= 10 {
		months++
	}
	if months < 0 {
		months = 0
	}
	if months > *termMonths {
		months = *termMonths
	}
	return months
}
