package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/listing-carts/internal/lifecycle"
	"github.com/nurpe/listing-carts/internal/model"
	"github.com/nurpe/listing-carts/internal/notification"
	"github.com/nurpe/listing-carts/internal/repository"
)

type InvoiceRenderer interface {
	Generate(doc model.InvoiceDocument) ([]byte, error)
}

type MarginReportRenderer interface {
	Generate(report model.MarginReport) ([]byte, error)
}

type ReportService struct {
	store    *repository.Store
	composer *notification.Composer
	pdf      InvoiceRenderer
	excel    MarginReportRenderer
	now      func() time.Time
}

type MarginReportInput struct {
	AgentID     uuid.UUID
	PeriodStart time.Time
	PeriodEnd   time.Time
}

type FileResult struct {
	FileName string
	Content  []byte
}

func NewReportService(store *repository.Store, composer *notification.Composer, pdf InvoiceRenderer, excel MarginReportRenderer) *ReportService {
	return &ReportService{
		store:    store,
		composer: composer,
		pdf:      pdf,
		excel:    excel,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// InvoicePDF renders the invoice of a finalized cart. Only displayed prices are shown.
func (s *ReportService) InvoicePDF(ctx context.Context, cartID uuid.UUID) (*FileResult, error) {
	cart, err := s.store.Carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, classify(err, "cart")
	}
	if !lifecycle.IsFinalized(cart.Status) {
		return nil, newError(KindInvalidState, nil, "cart %s is %s; invoices exist once it is approved", cart.SequenceLabel, cart.Status)
	}

	vendors, err := s.store.Vendors.MapByIDs(ctx, cart.VendorIDs())
	if err != nil {
		return nil, classify(err, "vendors")
	}

	issuedAt := s.now()
	if cart.InvoicedAt != nil {
		issuedAt = *cart.InvoicedAt
	}
	content, err := s.pdf.Generate(model.InvoiceDocument{
		Cart:      *cart,
		Items:     cart.SelectedItems(),
		Vendors:   vendors,
		ReviewURL: s.composer.ReviewURL(cart.AccessToken),
		IssuedAt:  issuedAt,
	})
	if err != nil {
		return nil, classify(fmt.Errorf("render invoice: %w", err), "invoice")
	}

	return &FileResult{
		FileName: fmt.Sprintf("invoice-%s-%s.pdf", cart.SequenceLabel, sanitizeFileName(cart.PropertyAddress)),
		Content:  content,
	}, nil
}

// MarginReport renders the commission earned on carts finalized within the
// period. Both ends of the period are whole UTC days and inclusive.
func (s *ReportService) MarginReport(ctx context.Context, input MarginReportInput) (*FileResult, error) {
	if input.AgentID == uuid.Nil {
		return nil, invalidInput("agent_id is required")
	}
	if input.PeriodStart.IsZero() || input.PeriodEnd.IsZero() {
		return nil, invalidInput("period dates are required")
	}

	periodStart := dateOnly(input.PeriodStart)
	periodEnd := dateOnly(input.PeriodEnd)
	if periodStart.After(periodEnd) {
		return nil, invalidInput("period_start must be before or equal to period_end")
	}
	endExclusive := periodEnd.Add(24 * time.Hour)

	rows, err := s.store.Audits.MarginRows(ctx, input.AgentID, periodStart, endExclusive)
	if err != nil {
		return nil, classify(err, "margin report")
	}

	report := model.MarginReport{
		AgentID:     input.AgentID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Rows:        rows,
	}
	content, err := s.excel.Generate(report)
	if err != nil {
		return nil, classify(fmt.Errorf("render margin report: %w", err), "margin report")
	}

	return &FileResult{
		FileName: fmt.Sprintf("margin-%s-%s-%s.xlsx",
			input.AgentID.String()[:8],
			periodStart.Format("20060102"),
			periodEnd.Format("20060102")),
		Content: content,
	}, nil
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r+'a'-'A')
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
