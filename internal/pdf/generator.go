package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/nurpe/listing-carts/internal/model"
	"github.com/nurpe/listing-carts/internal/notification"
)

const (
	fontName  = "Helvetica"
	qrImage   = "review-link"
	qrPixels  = 256
	qrSizeMM  = 32.0
	rowHeight = 7.0
)

// Generator renders cart invoices. Output is deterministic for a given document.
type Generator struct {
	currency string
}

func NewGenerator(currency string) *Generator {
	return &Generator{currency: currency}
}

func (g *Generator) Generate(doc model.InvoiceDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(doc.IssuedAt)
	pdf.SetModificationDate(doc.IssuedAt)
	pdf.SetTitle("Invoice "+doc.Cart.SequenceLabel, false)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(fontName, "B", 16)
	pdf.CellFormat(0, 10, tr("Invoice "+doc.Cart.SequenceLabel), "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	pdf.CellFormat(0, 6, "Issued "+formatDate(doc.IssuedAt), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	top := pdf.GetY()
	addBlock(pdf, tr, "Property", []string{doc.Cart.PropertyAddress})
	addBlock(pdf, tr, "Owner", []string{
		doc.Cart.OwnerName,
		safeValue(doc.Cart.OwnerEmail),
		safeValue(doc.Cart.OwnerPhone),
	})
	addBlock(pdf, tr, "Agent", []string{doc.Cart.AgentName, doc.Cart.AgentEmail})
	addBlock(pdf, tr, "Payment", []string{
		humanize(string(doc.Cart.PaymentMethod)) + ", " + strings.ToLower(humanize(string(doc.Cart.PaymentTiming))),
	})

	if doc.ReviewURL != "" {
		if err := addReviewCode(pdf, doc.ReviewURL, top); err != nil {
			return nil, err
		}
	}
	pdf.Ln(4)

	headers := []string{"Service", "Provider", "Available", "Price"}
	widths := []float64{70, 55, 25, 30}
	drawRow(pdf, headers, widths, true)

	var total int64
	for _, item := range doc.Items {
		provider := "-"
		if item.VendorID != nil {
			if vendor, ok := doc.Vendors[*item.VendorID]; ok {
				provider = vendor.Name
			}
		}
		available := "-"
		if item.AvailableOn != nil {
			available = formatDate(*item.AvailableOn)
		}
		drawRow(pdf, []string{
			tr(item.Name),
			tr(provider),
			available,
			notification.FormatCents(item.PriceCents, g.currency),
		}, widths, false)
		total += item.PriceCents
	}

	pdf.SetFont(fontName, "B", 11)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], rowHeight, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], rowHeight, notification.FormatCents(total, g.currency), "1", 1, "R", false, 0, "")

	if doc.ReviewURL != "" {
		pdf.Ln(6)
		pdf.SetFont(fontName, "", 9)
		pdf.MultiCell(0, 5, tr("Review this cart online: "+doc.ReviewURL), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addBlock(pdf *gofpdf.Fpdf, tr func(string) string, title string, lines []string) {
	pdf.SetFont(fontName, "B", 11)
	pdf.CellFormat(120, 6, title, "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		pdf.MultiCell(120, 5, tr(line), "", "L", false)
	}
	pdf.Ln(1)
}

func addReviewCode(pdf *gofpdf.Fpdf, url string, top float64) error {
	png, err := qrcode.Encode(url, qrcode.Medium, qrPixels)
	if err != nil {
		return fmt.Errorf("encode review link: %w", err)
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(qrImage, opts, bytes.NewReader(png))
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("register review link image: %w", err)
	}
	pageWidth, _ := pdf.GetPageSize()
	_, _, right, _ := pdf.GetMargins()
	pdf.ImageOptions(qrImage, pageWidth-right-qrSizeMM, top, qrSizeMM, qrSizeMM, false, opts, 0, "")
	return nil
}

func drawRow(pdf *gofpdf.Fpdf, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i == len(cols)-1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], rowHeight, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func safeValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func humanize(value string) string {
	value = strings.ReplaceAll(strings.ToLower(value), "_", " ")
	if value == "" {
		return value
	}
	if value == "ach" {
		return "ACH"
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("January 2, 2006")
}
