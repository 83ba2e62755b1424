package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/quotevox/quotevox-backend/constants"
	"github.com/quotevox/quotevox-backend/internal/entity"
	"github.com/quotevox/quotevox-backend/internal/repository"
)

type fakeQuoteStore struct {
	quote *entity.Quote
	items []entity.QuoteLineItem
}

func (f *fakeQuoteStore) WithinTx(ctx context.Context, fn func(tx repository.QuoteTx) error) error {
	return errors.New("not used in export tests")
}

func (f *fakeQuoteStore) GetQuoteWithItems(ctx context.Context, quoteID, userID uuid.UUID) (*entity.Quote, []entity.QuoteLineItem, error) {
	return f.quote, f.items, nil
}

type fakePricing struct {
	profile *entity.PricingProfile
	err     error
}

func (f *fakePricing) GetEffective(ctx context.Context, userID uuid.UUID) (*entity.PricingProfile, error) {
	return f.profile, f.err
}

func exportFixture() *fakeQuoteStore {
	quoteID := uuid.New()
	return &fakeQuoteStore{
		quote: &entity.Quote{
			ID:        quoteID,
			UserID:    uuid.New(),
			Title:     "Fence repair",
			Status:    "draft",
			Currency:  "AUD",
			CreatedAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		},
		items: []entity.QuoteLineItem{
			{
				QuoteID:        quoteID,
				ItemType:       constants.LineItemLabour,
				Description:    "Labour",
				Quantity:       8,
				Unit:           "hours",
				UnitPriceCents: 10000,
				LineTotalCents: 80000,
			},
			{
				QuoteID:        quoteID,
				ItemType:       constants.LineItemMaterials,
				Description:    "Palings",
				Quantity:       2,
				UnitPriceCents: 1150,
				LineTotalCents: 2300,
				Position:       1,
			},
		},
	}
}

func cell(t *testing.T, f *excelize.File, ref string) string {
	t.Helper()
	v, err := f.GetCellValue("Quote", ref)
	if err != nil {
		t.Fatalf("read %s: %v", ref, err)
	}
	return v
}

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open produced workbook: %v", err)
	}
	return f
}

func TestExportTaxExclusiveFooter(t *testing.T) {
	store := exportFixture()
	svc := NewService(store, &fakePricing{profile: &entity.PricingProfile{
		HourlyRateCents: 10000,
		DefaultTaxRate:  0.1,
	}}, nil)

	data, err := svc.ExportQuoteXLSX(context.Background(), store.quote.ID, store.quote.UserID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	f := openWorkbook(t, data)

	// Items start at row 6; two items, footer starts at row 9.
	if got := cell(t, f, "E9"); got != "Subtotal" {
		t.Fatalf("E9 = %q, want Subtotal", got)
	}
	if got := cell(t, f, "F9"); got != "823" {
		t.Fatalf("subtotal = %q, want 823", got)
	}
	if got := cell(t, f, "E10"); got != "Tax (10.0%)" {
		t.Fatalf("E10 = %q, want Tax (10.0%%)", got)
	}
	if got := cell(t, f, "F10"); got != "82.3" {
		t.Fatalf("tax = %q, want 82.3", got)
	}
	if got := cell(t, f, "E11"); got != "Total" {
		t.Fatalf("E11 = %q, want Total", got)
	}
	if got := cell(t, f, "F11"); got != "905.3" {
		t.Fatalf("total = %q, want 905.3", got)
	}
}

func TestExportTaxInclusiveFooter(t *testing.T) {
	store := exportFixture()
	svc := NewService(store, &fakePricing{profile: &entity.PricingProfile{
		HourlyRateCents: 10000,
		DefaultTaxRate:  0.1,
		OrgTaxInclusive: true,
	}}, nil)

	data, err := svc.ExportQuoteXLSX(context.Background(), store.quote.ID, store.quote.UserID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	f := openWorkbook(t, data)

	if got := cell(t, f, "E9"); got != "Total (incl. tax)" {
		t.Fatalf("E9 = %q, want inclusive total label", got)
	}
	if got := cell(t, f, "F9"); got != "823" {
		t.Fatalf("inclusive total = %q, want 823", got)
	}
	if got := cell(t, f, "E10"); got != "" {
		t.Fatalf("unexpected extra footer row: %q", got)
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	long := strings.Repeat("ü", 10)
	got := truncate(long, 5)
	if got != strings.Repeat("ü", 4)+"…" {
		t.Fatalf("truncate = %q, want four characters plus ellipsis", got)
	}
	if !utf8.ValidString(got) {
		t.Fatal("truncate split a multi-byte character")
	}
	if got := truncate("short note", 140); got != "short note" {
		t.Fatalf("truncate = %q, want input untouched", got)
	}
}

func TestExportPlainTotalWhenProfileUnavailable(t *testing.T) {
	store := exportFixture()
	svc := NewService(store, &fakePricing{err: errors.New("down")}, nil)

	data, err := svc.ExportQuoteXLSX(context.Background(), store.quote.ID, store.quote.UserID)
	if err != nil {
		t.Fatalf("export must not fail on profile lookup: %v", err)
	}
	f := openWorkbook(t, data)

	if got := cell(t, f, "E9"); got != "Total" {
		t.Fatalf("E9 = %q, want plain Total", got)
	}
	if got := cell(t, f, "B6"); got != "Labour" {
		t.Fatalf("B6 = %q, want first item description", got)
	}
}
