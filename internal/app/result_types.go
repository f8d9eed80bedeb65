package app

import "aura-finance/internal/core"

// DocumentResult is a rendered PDF and its download name.
type DocumentResult struct {
	Filename string
	Data     []byte
}

// InvoiceListResult holds the owner's invoices, newest first.
type InvoiceListResult struct {
	Invoices []core.Invoice `json:"invoices"`
}

// ClientListResult holds the owner's clients.
type ClientListResult struct {
	Clients []core.Client `json:"clients"`
}

// DashboardResult is everything the dashboard screen shows.
type DashboardResult struct {
	Metrics        core.DashboardMetrics `json:"metrics"`
	ActiveClients  int                   `json:"active_clients"`
	RecentInvoices []core.Invoice        `json:"recent_invoices"`
}

// CompareResult holds the model's discrepancy summary.
type CompareResult struct {
	Summary string `json:"summary"`
}
