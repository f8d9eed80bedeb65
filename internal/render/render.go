// Package render draws invoices as A4 PDF documents.
package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"aura-finance/internal/core"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/shopspring/decimal"
)

// TaxRate is applied to the invoice amount to produce the tax line.
var TaxRate = decimal.RequireFromString("0.21")

// Sender is the letterhead printed in the header band.
type Sender struct {
	Name    string
	Address string
	VAT     string
	Email   string
}

var DefaultSender = Sender{
	Name:    "AURA FINANCE",
	Address: "Paseo de la Castellana 1, Madrid",
	VAT:     "ES-B12345678",
	Email:   "contact@aurafinance.lux",
}

const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	margin       = 10.0
	bandHeight   = 40.0
	rowHeight    = 8.0
	footerHeight = 30.0

	colDesc   = 110.0
	colQty    = 20.0
	colPrice  = 30.0
	colAmount = 30.0
)

type rgb struct{ r, g, b int }

var (
	colorBand  = rgb{14, 17, 23}
	colorGold  = rgb{212, 175, 55}
	colorMuted = rgb{150, 150, 150}
	colorText  = rgb{40, 40, 40}
	colorRule  = rgb{230, 230, 230}
	colorWhite = rgb{255, 255, 255}
)

// Renderer produces invoice PDFs.
type Renderer struct {
	sender   Sender
	compress bool
}

type Option func(*Renderer)

// WithSender overrides the letterhead.
func WithSender(s Sender) Option {
	return func(r *Renderer) { r.sender = s }
}

// WithCompression toggles content stream compression. Tests disable it to
// inspect the drawn text.
func WithCompression(on bool) Option {
	return func(r *Renderer) { r.compress = on }
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{sender: DefaultSender, compress: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Totals returns subtotal (the invoice amount), tax rounded to cents, and their sum.
func Totals(amount decimal.Decimal) (subtotal, tax, total decimal.Decimal) {
	subtotal = amount
	tax = amount.Mul(TaxRate).Round(2)
	return subtotal, tax, subtotal.Add(tax)
}

// Render writes inv as a PDF to w. Rows that do not fit continue on a new
// page with the header band and table header repeated; the payment footer is
// only printed on the last page.
func (r *Renderer) Render(w io.Writer, inv *core.Invoice) error {
	if inv == nil {
		return fmt.Errorf("render: nil invoice")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetMargins(margin, bandHeight+10, margin)
	pdf.SetAutoPageBreak(true, footerHeight)
	pdf.SetTitle("Invoice "+inv.InvoiceNumber, true)
	pdf.SetCreator(r.sender.Name, true)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	d := &drawer{pdf: pdf, tr: tr}

	pdf.SetHeaderFuncMode(func() { d.header(r.sender, inv.InvoiceNumber) }, true)
	pdf.SetFooterFuncLpi(func(lastPage bool) {
		if lastPage {
			d.footer()
		}
	})

	pdf.AddPage()
	d.billTo(inv)
	d.tableHeader()
	for _, it := range inv.Items {
		if pdf.GetY()+rowHeight > pageHeight-footerHeight {
			pdf.AddPage()
			d.tableHeader()
		}
		d.row(it)
	}
	d.totals(inv)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render invoice %q: %w", inv.InvoiceNumber, err)
	}
	return nil
}

// Bytes renders inv into memory.
func (r *Renderer) Bytes(inv *core.Invoice) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, inv); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type drawer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (d *drawer) color(c rgb) {
	d.pdf.SetTextColor(c.r, c.g, c.b)
}

func (d *drawer) header(s Sender, number string) {
	pdf := d.pdf
	pdf.SetFillColor(colorBand.r, colorBand.g, colorBand.b)
	pdf.Rect(0, 0, pageWidth, bandHeight, "F")

	pdf.SetXY(margin, 8)
	pdf.SetFont("Helvetica", "B", 20)
	d.color(colorGold)
	pdf.CellFormat(100, 10, d.tr(s.Name), "", 2, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	d.color(colorMuted)
	for _, line := range []string{s.Address, "VAT: " + s.VAT, s.Email} {
		pdf.CellFormat(100, 4, d.tr(line), "", 2, "L", false, 0, "")
	}

	pdf.SetXY(pageWidth-margin-90, 8)
	pdf.SetFont("Helvetica", "B", 24)
	d.color(colorWhite)
	pdf.CellFormat(90, 12, "INVOICE", "", 2, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	d.color(colorGold)
	pdf.CellFormat(90, 6, d.tr("#"+number), "", 2, "R", false, 0, "")
}

func (d *drawer) footer() {
	pdf := d.pdf
	pdf.SetY(-25)
	pdf.SetFont("Helvetica", "I", 9)
	d.color(colorMuted)
	pdf.CellFormat(0, 5, "Payment due within 30 days.", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, "Thank you for your business.", "", 1, "C", false, 0, "")
}

func (d *drawer) billTo(inv *core.Invoice) {
	pdf := d.pdf
	top := pdf.GetY()

	pdf.SetFont("Helvetica", "B", 9)
	d.color(colorMuted)
	pdf.CellFormat(120, 5, "BILL TO", "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 12)
	d.color(colorText)
	pdf.CellFormat(120, 7, d.tr(strings.ToUpper(inv.ClientName)), "", 2, "L", false, 0, "")
	if inv.ClientAddress != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(120, 5, d.tr(inv.ClientAddress), "", 2, "L", false, 0, "")
	}
	bottom := pdf.GetY()

	pdf.SetXY(pageWidth-margin-60, top)
	pdf.SetFont("Helvetica", "B", 9)
	d.color(colorMuted)
	pdf.CellFormat(60, 5, "DATE", "", 2, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	d.color(colorText)
	pdf.CellFormat(60, 7, d.tr(inv.Date), "", 2, "R", false, 0, "")

	pdf.SetXY(margin, bottom+10)
}

func (d *drawer) tableHeader() {
	pdf := d.pdf
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(colorRule.r, colorRule.g, colorRule.b)
	d.color(colorText)
	pdf.CellFormat(colDesc, rowHeight, "DESCRIPTION", "", 0, "L", true, 0, "")
	pdf.CellFormat(colQty, rowHeight, "QTY", "", 0, "C", true, 0, "")
	pdf.CellFormat(colPrice, rowHeight, "UNIT PRICE", "", 0, "R", true, 0, "")
	pdf.CellFormat(colAmount, rowHeight, "AMOUNT", "", 1, "R", true, 0, "")
}

func (d *drawer) row(it core.LineItem) {
	pdf := d.pdf
	pdf.SetFont("Helvetica", "", 10)
	d.color(colorText)
	pdf.CellFormat(colDesc, rowHeight, d.fit(it.Description, colDesc-2), "B", 0, "L", false, 0, "")
	pdf.CellFormat(colQty, rowHeight, FormatQuantity(it.Quantity), "B", 0, "C", false, 0, "")
	pdf.CellFormat(colPrice, rowHeight, FormatMoney(it.UnitPrice), "B", 0, "R", false, 0, "")
	pdf.CellFormat(colAmount, rowHeight, FormatMoney(it.Total), "B", 1, "R", false, 0, "")
}

func (d *drawer) totals(inv *core.Invoice) {
	pdf := d.pdf
	subtotal, tax, total := Totals(inv.Amount)
	labelX := pageWidth - margin - colPrice - 40

	pdf.Ln(4)
	line := func(label, value string) {
		pdf.SetX(labelX)
		pdf.CellFormat(40, 7, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(colPrice, 7, value, "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 10)
	d.color(colorText)
	line("Subtotal", FormatMoney(subtotal))
	line(fmt.Sprintf("Tax (%s%%)", TaxRate.Shift(2).String()), FormatMoney(tax))

	pdf.SetFont("Helvetica", "B", 12)
	d.color(colorGold)
	line(d.tr("TOTAL "+inv.Currency), FormatMoney(total))
}

// fit shortens s with an ellipsis until it fits width at the current font.
func (d *drawer) fit(s string, width float64) string {
	text := d.tr(s)
	if d.pdf.GetStringWidth(text) <= width {
		return text
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		text = d.tr(string(runes) + "...")
		if d.pdf.GetStringWidth(text) <= width {
			return text
		}
	}
	return ""
}

// FormatMoney renders d with two decimals and comma thousands separators.
func FormatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + "." + frac
}

// FormatQuantity prints the whole part of q, truncating toward zero.
func FormatQuantity(q decimal.Decimal) string {
	return q.Truncate(0).String()
}

// Filename is the download name for a rendered invoice.
func Filename(inv *core.Invoice) string {
	number := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return '_'
		}
		return r
	}, inv.InvoiceNumber)
	return "Invoice_" + number + ".pdf"
}

// PageCount returns the number of pages in a PDF document.
func PageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}
