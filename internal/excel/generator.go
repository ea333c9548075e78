package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/listing-carts/internal/model"
)

const (
	summarySheet = "Summary"
	maxSheetName = 31
	// built-in "#,##0.00"
	moneyNumFmt = 4
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// cartGroup is the slice of report rows belonging to one cart.
type cartGroup struct {
	ID      uuid.UUID
	Label   string
	Address string
	Rows    []model.MarginRow
}

func (g *Generator) Generate(report model.MarginReport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	money, err := file.NewStyle(&excelize.Style{NumFmt: moneyNumFmt})
	if err != nil {
		return nil, err
	}

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	groups := groupByCart(report.Rows)
	if err := g.writeSummary(file, report, groups, money); err != nil {
		return nil, err
	}

	usedNames := map[string]struct{}{summarySheet: {}}
	for _, group := range groups {
		sheetName := buildSheetName(group, usedNames)
		usedNames[sheetName] = struct{}{}

		if _, err := file.NewSheet(sheetName); err != nil {
			return nil, err
		}
		if err := g.writeDetail(file, sheetName, group, money); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, report model.MarginReport, groups []cartGroup, money int) error {
	raw, displayed, margin := report.Totals()

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(summarySheet, cell, value)
	}

	set("A1", "Agent")
	set("B1", report.AgentID.String())
	set("A2", "Period start")
	set("B2", formatDate(report.PeriodStart))
	set("A3", "Period end")
	set("B3", formatDate(report.PeriodEnd))
	set("A4", "Carts")
	set("B4", len(groups))
	set("A5", "Vendor quotes")
	set("B5", toAmount(raw))
	set("A6", "Billed to owners")
	set("B6", toAmount(displayed))
	set("A7", "Margin")
	set("B7", toAmount(margin))
	if err := file.SetCellStyle(summarySheet, "B5", "B7", money); err != nil {
		return err
	}

	tableRow := 9
	headers := []string{"Cart", "Property", "Vendor quotes", "Billed", "Margin"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, group := range groups {
		row := tableRow + 1 + i
		groupRaw, groupDisplayed, groupMargin := sumRows(group.Rows)
		set(fmt.Sprintf("A%d", row), group.Label)
		set(fmt.Sprintf("B%d", row), group.Address)
		set(fmt.Sprintf("C%d", row), toAmount(groupRaw))
		set(fmt.Sprintf("D%d", row), toAmount(groupDisplayed))
		set(fmt.Sprintf("E%d", row), toAmount(groupMargin))
	}
	if len(groups) > 0 {
		last := tableRow + len(groups)
		if err := file.SetCellStyle(summarySheet, fmt.Sprintf("C%d", tableRow+1), fmt.Sprintf("E%d", last), money); err != nil {
			return err
		}
	}

	_ = file.SetColWidth(summarySheet, "A", "A", 18)
	_ = file.SetColWidth(summarySheet, "B", "B", 40)
	_ = file.SetColWidth(summarySheet, "C", "E", 16)
	return nil
}

func (g *Generator) writeDetail(file *excelize.File, sheet string, group cartGroup, money int) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Cart")
	set("B1", group.Label)
	set("A2", "Property")
	set("B2", group.Address)

	tableRow := 4
	headers := []string{"Service", "Vendor", "Priced at", "Vendor quote", "Commission %", "Billed", "Margin"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, row := range group.Rows {
		r := tableRow + 1 + i
		set(fmt.Sprintf("A%d", r), row.ServiceName)
		set(fmt.Sprintf("B%d", r), formatString(row.VendorName))
		set(fmt.Sprintf("C%d", r), formatDateTime(row.CreatedAt))
		set(fmt.Sprintf("D%d", r), toAmount(row.RawCents))
		set(fmt.Sprintf("E%d", r), row.CommissionPercent.InexactFloat64())
		set(fmt.Sprintf("F%d", r), toAmount(row.DisplayedCents))
		set(fmt.Sprintf("G%d", r), toAmount(row.MarginCents))
	}
	if len(group.Rows) > 0 {
		last := tableRow + len(group.Rows)
		if err := file.SetCellStyle(sheet, fmt.Sprintf("D%d", tableRow+1), fmt.Sprintf("G%d", last), money); err != nil {
			return err
		}
	}

	_ = file.SetColWidth(sheet, "A", "B", 28)
	_ = file.SetColWidth(sheet, "C", "C", 20)
	_ = file.SetColWidth(sheet, "D", "G", 14)
	return nil
}

func groupByCart(rows []model.MarginRow) []cartGroup {
	var groups []cartGroup
	index := make(map[uuid.UUID]int)
	for _, row := range rows {
		i, ok := index[row.CartID]
		if !ok {
			i = len(groups)
			index[row.CartID] = i
			groups = append(groups, cartGroup{
				ID:      row.CartID,
				Label:   row.SequenceLabel,
				Address: row.PropertyAddress,
			})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}
	return groups
}

func sumRows(rows []model.MarginRow) (raw, displayed, margin int64) {
	for _, row := range rows {
		raw += row.RawCents
		displayed += row.DisplayedCents
		margin += row.MarginCents
	}
	return raw, displayed, margin
}

func buildSheetName(group cartGroup, used map[string]struct{}) string {
	base := strings.TrimSpace(group.Label)
	if base == "" {
		base = group.ID.String()
	}
	if address := strings.TrimSpace(group.Address); address != "" {
		base = base + " " + address
	}
	base = sanitizeSheetName(base)
	base = truncate(base, maxSheetName)

	candidate := base
	counter := 2
	for {
		if _, exists := used[candidate]; !exists {
			return candidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		candidate = truncate(base, maxSheetName-len(suffix)) + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
		"'", "",
	)
	value = strings.TrimSpace(replacer.Replace(value))
	if value == "" {
		return "Cart"
	}
	return value
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit]))
}

func toAmount(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func formatString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
