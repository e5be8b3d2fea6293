package report

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultra-bms/ultra-bms/internal/finance"
)

func sampleInvoice() finance.Invoice {
	return finance.Invoice{
		ID:            42,
		InvoiceNumber: "INV-202608-00042",
		PropertyID:    1,
		TenantID:      7,
		Type:          finance.InvoiceRent,
		AmountCents:   125000,
		PaidCents:     50000,
		DueDate:       time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC),
		Status:        finance.InvoicePartial,
		CreatedAt:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestInvoiceHTML(t *testing.T) {
	html, err := InvoiceHTML(sampleInvoice())
	require.NoError(t, err)
	assert.Contains(t, html, "INV-202608-00042")
	assert.Contains(t, html, "Monthly rent")
	assert.Contains(t, html, "1250.00")
	assert.Contains(t, html, "750.00", "outstanding balance is shown")
	assert.Contains(t, html, "Due 5 August 2026")
}

func TestStatementHTML(t *testing.T) {
	html, err := StatementHTML(finance.MonthlyReport{
		Month:          "2026-08",
		BilledCents:    400000,
		CollectedCents: 300000,
		CollectionRate: 0.75,
		Aging:          finance.AgingBuckets{Current: 60000, NinetyPlus: 40000, TotalOverdue: 100000},
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Financial Statement 2026-08")
	assert.Contains(t, html, "75.0%")
	assert.Contains(t, html, "1000.00")
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "0.00", FormatCents(0))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "12.34", FormatCents(1234))
	assert.Equal(t, "-3.50", FormatCents(-350))
}

func TestRenderInvoicePDFPostsToGotenberg(t *testing.T) {
	var gotPath, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("files")
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7 fake"))
	}))
	defer srv.Close()

	renderer := NewRenderer(NewClient(srv.URL))
	pdf, err := renderer.RenderInvoicePDF(context.Background(), sampleInvoice())
	require.NoError(t, err)
	assert.Equal(t, "/forms/chromium/convert/html", gotPath)
	assert.True(t, strings.HasPrefix(gotContentType, "multipart/form-data"))
	assert.Equal(t, []byte("%PDF-1.7 fake"), pdf)
}

func TestRenderHTMLSurfacesGotenbergError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chromium crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).RenderHTML(context.Background(), "<html></html>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "chromium crashed")
}
