package models

type LoanInput struct {
	Price       float64
	DownPayment float64
	AnnualRate  float64
	TermMonths  int
}

type LoanQuote struct {
	Principal      float64 `json:"principal"`
	MonthlyPayment float64 `json:"monthly_payment"`
	TotalPaid      float64 `json:"total_paid"`
	TotalInterest  float64 `json:"total_interest"`
}
