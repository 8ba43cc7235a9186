package cartsync

import (
	"github.com/hifideliveryeats/cartsync/pkg/types"
	"github.com/shopspring/decimal"
)

var (
	DefaultTaxRate        = decimal.RequireFromString("0.18")
	DefaultDeliveryCharge = decimal.RequireFromString("50.00")

	hundred = decimal.NewFromInt(100)
)

// Pricing holds the constants applied on top of the line totals.
type Pricing struct {
	TaxRate        decimal.Decimal
	DeliveryCharge decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:        DefaultTaxRate,
		DeliveryCharge: DefaultDeliveryCharge,
	}
}

// LineBreakdown is one row of the order summary table.
type LineBreakdown struct {
	ItemID          string          `json:"menu_item_id"`
	Name            string          `json:"name"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discount_percentage"`
	LineTotal       decimal.Decimal `json:"line_total"`
	Discount        decimal.Decimal `json:"discount"`
	Payable         decimal.Decimal `json:"payable"`
}

// Summary is derived from the cart lines and never stored.
type Summary struct {
	Lines          []LineBreakdown `json:"lines"`
	ItemCount      int             `json:"item_count"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountTotal  decimal.Decimal `json:"discount_total"`
	TaxableAmount  decimal.Decimal `json:"taxable_amount"`
	Tax            decimal.Decimal `json:"tax"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	Total          decimal.Decimal `json:"total"`
}

// Summarize computes the order summary for lines. The discount total and tax
// are rounded half away from zero to cents; everything else is exact.
func Summarize(lines []types.CartLine, pricing Pricing) Summary {
	summary := Summary{
		Lines:          make([]LineBreakdown, 0, len(lines)),
		Subtotal:       decimal.Zero,
		DiscountTotal:  decimal.Zero,
		DeliveryCharge: pricing.DeliveryCharge,
	}

	rawDiscount := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		qty := decimal.NewFromInt(int64(line.Quantity))
		pct := clampPercent(line.DiscountPercent)
		lineTotal := line.UnitPrice.Mul(qty)
		lineDiscount := lineTotal.Mul(pct).Div(hundred)

		summary.ItemCount += line.Quantity
		summary.Subtotal = summary.Subtotal.Add(lineTotal)
		rawDiscount = rawDiscount.Add(lineDiscount)

		summary.Lines = append(summary.Lines, LineBreakdown{
			ItemID:          line.ItemID,
			Name:            line.Name,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			DiscountPercent: pct,
			LineTotal:       lineTotal,
			Discount:        lineDiscount.Round(2),
			Payable:         lineTotal.Sub(lineDiscount).Round(2),
		})
	}

	summary.DiscountTotal = rawDiscount.Round(2)
	summary.TaxableAmount = summary.Subtotal.Sub(summary.DiscountTotal)
	summary.Tax = summary.TaxableAmount.Mul(pricing.TaxRate).Round(2)
	summary.Total = summary.TaxableAmount.Add(summary.Tax).Add(summary.DeliveryCharge)
	return summary
}

func clampPercent(pct decimal.Decimal) decimal.Decimal {
	if pct.IsNegative() {
		return decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}
