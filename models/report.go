package models

// Display-only price of the paid history report. Charging happens at the
// payment provider.
const (
	ReportPriceDisplay = "$29.99"
	ReportPriceValue   = 29.99
	ReportPriceCents   = 2999
	ReportCurrency     = "USD"
	ReportDescription  = "Full vehicle history report"
)
