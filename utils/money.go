package utils

import (
	"errors"
	"math"

	"vinreport-web/models"
)

var ErrInvalidLoan = errors.New("invalid loan parameters")

func Round(value float64) float64 {
	return math.Round(value*100) / 100
}

// CalculateLoan amortises price minus down payment over TermMonths at
// AnnualRate percent. A zero rate splits the principal evenly.
func CalculateLoan(in models.LoanInput) (models.LoanQuote, error) {
	if !finite(in.Price) || !finite(in.DownPayment) || !finite(in.AnnualRate) {
		return models.LoanQuote{}, ErrInvalidLoan
	}
	if in.Price <= 0 || in.TermMonths <= 0 || in.AnnualRate < 0 || in.DownPayment < 0 {
		return models.LoanQuote{}, ErrInvalidLoan
	}

	principal := in.Price - in.DownPayment
	if principal <= 0 {
		return models.LoanQuote{}, ErrInvalidLoan
	}

	n := float64(in.TermMonths)
	var monthly float64
	if in.AnnualRate == 0 {
		monthly = principal / n
	} else {
		r := in.AnnualRate / 100 / 12
		monthly = principal * r / (1 - math.Pow(1+r, -n))
	}

	total := monthly * n
	if !finite(monthly) || !finite(total) {
		return models.LoanQuote{}, ErrInvalidLoan
	}
	return models.LoanQuote{
		Principal:      Round(principal),
		MonthlyPayment: Round(monthly),
		TotalPaid:      Round(total),
		TotalInterest:  Round(total - principal),
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
