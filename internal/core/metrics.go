package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MetricsWindow is the length of the current and the previous comparison period.
const MetricsWindow = 30 * 24 * time.Hour

// DashboardMetrics holds revenue sums by status and their change against the
// previous window.
type DashboardMetrics struct {
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	PendingRevenue decimal.Decimal `json:"pending_revenue"`
	OverdueRevenue decimal.Decimal `json:"overdue_revenue"`
	DeltaRevenue   string          `json:"delta_revenue"`
	DeltaPending   string          `json:"delta_pending"`
	DeltaOverdue   string          `json:"delta_overdue"`
	InvoiceCount   int             `json:"invoice_count"`
}

// ComputeMetrics sums invoice amounts by status. Deltas compare the invoices
// dated within the window ending at asOf with the window before it.
func ComputeMetrics(invoices []Invoice, asOf time.Time) DashboardMetrics {
	m := DashboardMetrics{
		TotalRevenue:   decimal.Zero,
		PendingRevenue: decimal.Zero,
		OverdueRevenue: decimal.Zero,
		InvoiceCount:   len(invoices),
	}

	var cur, prev [3]decimal.Decimal
	for i := range cur {
		cur[i], prev[i] = decimal.Zero, decimal.Zero
	}

	curStart := asOf.Add(-MetricsWindow).Format(DateLayout)
	prevStart := asOf.Add(-2 * MetricsWindow).Format(DateLayout)
	end := asOf.Format(DateLayout)

	for _, inv := range invoices {
		idx := statusIndex(inv.Status)
		if idx < 0 {
			continue
		}
		switch idx {
		case 0:
			m.TotalRevenue = m.TotalRevenue.Add(inv.Amount)
		case 1:
			m.PendingRevenue = m.PendingRevenue.Add(inv.Amount)
		case 2:
			m.OverdueRevenue = m.OverdueRevenue.Add(inv.Amount)
		}

		// Dates are YYYY-MM-DD so string comparison is chronological.
		switch {
		case inv.Date > curStart && inv.Date <= end:
			cur[idx] = cur[idx].Add(inv.Amount)
		case inv.Date > prevStart && inv.Date <= curStart:
			prev[idx] = prev[idx].Add(inv.Amount)
		}
	}

	m.DeltaRevenue = formatDelta(cur[0], prev[0])
	m.DeltaPending = formatDelta(cur[1], prev[1])
	m.DeltaOverdue = formatDelta(cur[2], prev[2])
	return m
}

func statusIndex(s InvoiceStatus) int {
	switch s {
	case InvoiceStatusPaid:
		return 0
	case InvoiceStatusPending:
		return 1
	case InvoiceStatusOverdue:
		return 2
	}
	return -1
}

// formatDelta renders the relative change from prev to cur as "+12.5%".
func formatDelta(cur, prev decimal.Decimal) string {
	if prev.IsZero() {
		if cur.IsZero() {
			return "+0.0%"
		}
		return "+100.0%"
	}
	pct := cur.Sub(prev).Div(prev.Abs()).Mul(decimal.NewFromInt(100))
	sign := "+"
	if pct.IsNegative() {
		sign = ""
	}
	return fmt.Sprintf("%s%s%%", sign, pct.StringFixed(1))
}
