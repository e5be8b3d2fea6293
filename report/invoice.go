package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/ultra-bms/ultra-bms/internal/finance"
)

// Renderer turns finance documents into PDFs through Gotenberg. It
// satisfies the invoice renderer the finance service expects.
type Renderer struct {
	client *Client
}

func NewRenderer(client *Client) *Renderer {
	return &Renderer{client: client}
}

var invoiceTmpl = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Helvetica, Arial, sans-serif; margin: 40px; color: #1a1a1a; }
h1 { font-size: 22px; border-bottom: 2px solid #2c5282; padding-bottom: 8px; }
table { width: 100%; border-collapse: collapse; margin-top: 24px; }
td, th { padding: 8px 12px; border: 1px solid #cbd5e0; text-align: left; }
th { background: #edf2f7; }
.total { font-weight: bold; }
.meta { color: #4a5568; font-size: 13px; margin-top: 4px; }
</style>
</head>
<body>
<h1>Invoice {{.Invoice.InvoiceNumber}}</h1>
<p class="meta">Issued {{.IssuedAt}} &middot; Due {{.DueDate}} &middot; Status {{.Invoice.Status}}</p>
<table>
<tr><th>Description</th><th>Amount</th></tr>
<tr><td>{{.Description}}</td><td>{{.Amount}}</td></tr>
<tr><td>Paid to date</td><td>{{.Paid}}</td></tr>
<tr class="total"><td>Balance due</td><td>{{.Outstanding}}</td></tr>
</table>
<p class="meta">Property #{{.Invoice.PropertyID}} &middot; Tenant #{{.Invoice.TenantID}}</p>
</body>
</html>`))

type invoiceView struct {
	Invoice     finance.Invoice
	IssuedAt    string
	DueDate     string
	Description string
	Amount      string
	Paid        string
	Outstanding string
}

// FormatCents renders a cent amount as a decimal money string.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func describeInvoice(inv finance.Invoice) string {
	switch inv.Type {
	case finance.InvoiceRent:
		return "Monthly rent"
	case finance.InvoiceUtility:
		return "Utility charges"
	case finance.InvoiceMaintenance:
		return "Maintenance charges"
	default:
		return string(inv.Type)
	}
}

// InvoiceHTML renders the invoice document without converting it, so
// templates can be verified without a Gotenberg instance.
func InvoiceHTML(inv finance.Invoice) (string, error) {
	view := invoiceView{
		Invoice:     inv,
		IssuedAt:    inv.CreatedAt.Format("2 January 2006"),
		DueDate:     inv.DueDate.Format("2 January 2006"),
		Description: describeInvoice(inv),
		Amount:      FormatCents(inv.AmountCents),
		Paid:        FormatCents(inv.PaidCents),
		Outstanding: FormatCents(inv.Outstanding()),
	}
	var buf bytes.Buffer
	if err := invoiceTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("report: render invoice template: %w", err)
	}
	return buf.String(), nil
}

// RenderInvoicePDF produces the final PDF bytes for an invoice.
func (r *Renderer) RenderInvoicePDF(ctx context.Context, inv finance.Invoice) ([]byte, error) {
	html, err := InvoiceHTML(inv)
	if err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, html)
}

var statementTmpl = template.Must(template.New("statement").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Helvetica, Arial, sans-serif; margin: 40px; color: #1a1a1a; }
h1 { font-size: 22px; border-bottom: 2px solid #2c5282; padding-bottom: 8px; }
table { width: 100%; border-collapse: collapse; margin-top: 24px; }
td, th { padding: 8px 12px; border: 1px solid #cbd5e0; text-align: left; }
th { background: #edf2f7; }
</style>
</head>
<body>
<h1>Financial Statement {{.Report.Month}}</h1>
<table>
<tr><th>Metric</th><th>Value</th></tr>
<tr><td>Billed</td><td>{{.Billed}}</td></tr>
<tr><td>Collected</td><td>{{.Collected}}</td></tr>
<tr><td>Collection rate</td><td>{{.Rate}}</td></tr>
</table>
<h1>Receivables Aging</h1>
<table>
<tr><th>Bucket</th><th>Outstanding</th></tr>
<tr><td>0-30 days</td><td>{{.Current}}</td></tr>
<tr><td>31-60 days</td><td>{{.Thirty}}</td></tr>
<tr><td>61-90 days</td><td>{{.Sixty}}</td></tr>
<tr><td>Over 90 days</td><td>{{.Ninety}}</td></tr>
<tr><td>Total overdue</td><td>{{.TotalOverdue}}</td></tr>
</table>
<p>Generated {{.GeneratedAt}}</p>
</body>
</html>`))

type statementView struct {
	Report       finance.MonthlyReport
	Billed       string
	Collected    string
	Rate         string
	Current      string
	Thirty       string
	Sixty        string
	Ninety       string
	TotalOverdue string
	GeneratedAt  string
}

// StatementHTML renders the monthly statement document.
func StatementHTML(rep finance.MonthlyReport) (string, error) {
	view := statementView{
		Report:       rep,
		Billed:       FormatCents(rep.BilledCents),
		Collected:    FormatCents(rep.CollectedCents),
		Rate:         fmt.Sprintf("%.1f%%", rep.CollectionRate*100),
		Current:      FormatCents(rep.Aging.Current),
		Thirty:       FormatCents(rep.Aging.ThirtyPlus),
		Sixty:        FormatCents(rep.Aging.SixtyPlus),
		Ninety:       FormatCents(rep.Aging.NinetyPlus),
		TotalOverdue: FormatCents(rep.Aging.TotalOverdue),
		GeneratedAt:  time.Now().UTC().Format(time.RFC1123),
	}
	var buf bytes.Buffer
	if err := statementTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("report: render statement template: %w", err)
	}
	return buf.String(), nil
}

// RenderStatementPDF produces the PDF for a monthly financial
// statement.
func (r *Renderer) RenderStatementPDF(ctx context.Context, rep finance.MonthlyReport) ([]byte, error) {
	html, err := StatementHTML(rep)
	if err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, html)
}
