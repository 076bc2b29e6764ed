package cart

import "github.com/fekuna/cave-storefront/internal/model"

type LineSummary struct {
	model.CartLine
	Warnings       []string
	LineTotalCents int64
}

// Orderable reports whether the line can be checked out as is.
func (l LineSummary) Orderable() bool {
	return len(l.Warnings) == 0
}

type Summary struct {
	Lines         []LineSummary
	ItemCount     int
	SubtotalCents int64
	HasWarnings   bool
}

// LineWarnings evaluates a line against the current product state. A line
// whose product has no stock carries both out_of_stock and
// insufficient_stock.
func LineWarnings(line model.CartLine) []string {
	p := line.Product
	if p == nil || !p.Available() {
		return []string{model.WarningUnavailable}
	}
	var warnings []string
	if !p.InStock() {
		warnings = append(warnings, model.WarningOutOfStock)
	}
	if line.Quantity > p.StockQuantity {
		warnings = append(warnings, model.WarningInsufficientStock)
	}
	return warnings
}

// Summarize computes warnings and totals. Unavailable lines count toward the
// item count but not the subtotal.
func Summarize(lines []model.CartLine) Summary {
	s := Summary{Lines: make([]LineSummary, 0, len(lines))}
	for _, line := range lines {
		ls := LineSummary{CartLine: line, Warnings: LineWarnings(line)}
		if line.Product != nil && line.Product.Available() {
			ls.LineTotalCents = line.Product.PriceCents * int64(line.Quantity)
			s.SubtotalCents += ls.LineTotalCents
		}
		s.ItemCount += line.Quantity
		if len(ls.Warnings) > 0 {
			s.HasWarnings = true
		}
		s.Lines = append(s.Lines, ls)
	}
	return s
}

// ValidQuantity reports whether q is an allowed line quantity.
func ValidQuantity(q int) bool {
	return q >= model.MinCartQuantity && q <= model.MaxCartQuantity
}
