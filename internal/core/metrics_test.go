package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func statusInvoice(status InvoiceStatus, amount, date string) Invoice {
	return Invoice{Status: status, Amount: dec(amount), Date: date}
}

func TestComputeMetrics_SumsByStatus(t *testing.T) {
	asOf := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	invoices := []Invoice{
		statusInvoice(InvoiceStatusPaid, "100", "2024-06-01"),
		statusInvoice(InvoiceStatusPending, "50", "2024-06-02"),
		statusInvoice(InvoiceStatusOverdue, "30", "2024-06-03"),
	}

	m := ComputeMetrics(invoices, asOf)

	assertDec(t, "100", m.TotalRevenue)
	assertDec(t, "50", m.PendingRevenue)
	assertDec(t, "30", m.OverdueRevenue)
	assert.Equal(t, 3, m.InvoiceCount)
}

func TestComputeMetrics_Empty(t *testing.T) {
	m := ComputeMetrics(nil, time.Now())

	assert.True(t, m.TotalRevenue.IsZero())
	assert.True(t, m.PendingRevenue.IsZero())
	assert.True(t, m.OverdueRevenue.IsZero())
	assert.Equal(t, "+0.0%", m.DeltaRevenue)
	assert.Equal(t, "+0.0%", m.DeltaPending)
	assert.Equal(t, "+0.0%", m.DeltaOverdue)
}

func TestComputeMetrics_PeriodOverPeriod(t *testing.T) {
	asOf := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	invoices := []Invoice{
		// current window: (2024-05-31, 2024-06-30]
		statusInvoice(InvoiceStatusPaid, "150", "2024-06-15"),
		statusInvoice(InvoiceStatusPending, "20", "2024-06-30"),
		// previous window: (2024-05-01, 2024-05-31]
		statusInvoice(InvoiceStatusPaid, "100", "2024-05-31"),
		statusInvoice(InvoiceStatusPending, "40", "2024-05-10"),
		statusInvoice(InvoiceStatusOverdue, "10", "2024-05-02"),
		// outside both windows, still counted in totals
		statusInvoice(InvoiceStatusPaid, "1000", "2023-01-01"),
		statusInvoice(InvoiceStatusPaid, "5", "2024-07-15"),
	}

	m := ComputeMetrics(invoices, asOf)

	assertDec(t, "1255", m.TotalRevenue)
	assert.Equal(t, "+50.0%", m.DeltaRevenue)
	assert.Equal(t, "-50.0%", m.DeltaPending)
	assert.Equal(t, "-100.0%", m.DeltaOverdue)
}

func TestComputeMetrics_IgnoresUnknownStatus(t *testing.T) {
	m := ComputeMetrics([]Invoice{statusInvoice("Cancelled", "500", "2024-01-01")}, time.Now())

	assert.True(t, m.TotalRevenue.IsZero())
	assert.Equal(t, 1, m.InvoiceCount)
}

func TestFormatDelta(t *testing.T) {
	assert.Equal(t, "+100.0%", formatDelta(decimal.NewFromInt(5), decimal.Zero))
	assert.Equal(t, "+12.5%", formatDelta(dec("112.5"), dec("100")))
	assert.Equal(t, "-3.0%", formatDelta(dec("97"), dec("100")))
	assert.Equal(t, "+0.0%", formatDelta(dec("100"), dec("100")))
}
