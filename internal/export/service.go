package export

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/quotevox/quotevox-backend/internal/repository"
)

// Service is a tiny façade over the quote store that produces XLSX bytes for
// quote downloads.
type Service struct {
	quotes  repository.QuoteStore
	pricing repository.PricingProfileRepository
	logger  *slog.Logger
}

func NewService(quotes repository.QuoteStore, pricing repository.PricingProfileRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{quotes: quotes, pricing: pricing, logger: logger}
}

// ExportQuoteXLSX returns an XLSX workbook (as bytes) for one quote: a header
// block, then one row per line item in document order, then a total row.
func (s *Service) ExportQuoteXLSX(ctx context.Context, quoteID, userID uuid.UUID) ([]byte, error) {
	start := time.Now()

	quote, items, err := s.quotes.GetQuoteWithItems(ctx, quoteID, userID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Quote"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defaultIndex, _ := f.GetSheetIndex("Sheet1"); defaultIndex != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	write(1, 1, quote.Title)
	write(1, 2, "Created")
	write(2, 2, quote.CreatedAt.Format("2006-01-02"))
	write(1, 3, "Currency")
	write(2, 3, quote.Currency)

	headers := []string{"Type", "Description", "Qty", "Unit", "Unit Price", "Line Total", "Notes"}
	const headerRow = 5
	for i, h := range headers {
		write(i+1, headerRow, h)
	}

	var totalCents int64
	row := headerRow + 1
	for _, li := range items {
		write(1, row, string(li.ItemType))
		write(2, row, li.Description)
		write(3, row, li.Quantity)
		write(4, row, li.Unit)
		write(5, row, centsToAmount(li.UnitPriceCents))
		write(6, row, centsToAmount(li.LineTotalCents))
		write(7, row, truncate(li.Notes, 140))
		totalCents += li.LineTotalCents
		row++
	}

	s.writeTotals(ctx, write, quote.UserID, row+1, totalCents)

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 12) // type
	_ = f.SetColWidth(sheet, "B", "B", 42) // description
	_ = f.SetColWidth(sheet, "C", "D", 10) // qty, unit
	_ = f.SetColWidth(sheet, "E", "F", 14) // amounts
	_ = f.SetColWidth(sheet, "G", "G", 48) // notes

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"quote_id", quoteID.String(),
		"rows", len(items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// writeTotals renders the footer. Tax-inclusive orgs get a single inclusive
// total; otherwise a subtotal/tax/total block when a tax rate is configured.
func (s *Service) writeTotals(ctx context.Context, write func(col, row int, v any), userID uuid.UUID, row int, totalCents int64) {
	profile, err := s.pricing.GetEffective(ctx, userID)
	if err != nil {
		s.logger.Warn("export.profile_unavailable", "user_id", userID.String(), "error", err)
		write(5, row, "Total")
		write(6, row, centsToAmount(totalCents))
		return
	}

	if profile.OrgTaxInclusive || profile.DefaultTaxRate <= 0 {
		label := "Total"
		if profile.OrgTaxInclusive && profile.DefaultTaxRate > 0 {
			label = "Total (incl. tax)"
		}
		write(5, row, label)
		write(6, row, centsToAmount(totalCents))
		return
	}

	taxCents := int64(math.Round(float64(totalCents) * profile.DefaultTaxRate))
	write(5, row, "Subtotal")
	write(6, row, centsToAmount(totalCents))
	write(5, row+1, fmt.Sprintf("Tax (%.1f%%)", profile.DefaultTaxRate*100))
	write(6, row+1, centsToAmount(taxCents))
	write(5, row+2, "Total")
	write(6, row+2, centsToAmount(totalCents+taxCents))
}

func centsToAmount(cents int64) float64 {
	return float64(cents) / 100
}

// truncate shortens s to at most n characters, ellipsized. Counts runes so a
// multi-byte character is never split mid-sequence.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n == 1 {
		return string(runes[:1])
	}
	return string(runes[:n-1]) + "…"
}
