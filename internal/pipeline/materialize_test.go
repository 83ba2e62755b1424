package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/quotevox/quotevox-backend/constants"
	"github.com/quotevox/quotevox-backend/internal/common"
	"github.com/quotevox/quotevox-backend/internal/entity"
	"github.com/quotevox/quotevox-backend/internal/repository"
)

// fakeQuoteStore is an in-memory QuoteStore/QuoteTx. A real transaction is not
// simulated; the fake just records the calls the materializer makes.
type fakeQuoteStore struct {
	intake    *entity.VoiceIntake
	quote     *entity.Quote
	items     []entity.QuoteLineItem
	customers []entity.Customer

	locks       int
	inserted    int
	evicted     int64
	deleteCalls int
	finished    constants.IntakeStatus
}

func (f *fakeQuoteStore) WithinTx(_ context.Context, fn func(tx repository.QuoteTx) error) error {
	return fn(f)
}

func (f *fakeQuoteStore) GetQuoteWithItems(_ context.Context, quoteID, _ uuid.UUID) (*entity.Quote, []entity.QuoteLineItem, error) {
	if f.quote == nil || f.quote.ID != quoteID {
		return nil, nil, common.NewAppError(common.CodeNotFound, "quote not found", common.ErrNotFound)
	}
	return f.quote, f.items, nil
}

func (f *fakeQuoteStore) LockIntakeForQuoteCreation(_ context.Context, intakeID, _ uuid.UUID) (*entity.VoiceIntake, error) {
	f.locks++
	if f.intake == nil || f.intake.ID != intakeID {
		return nil, common.NewAppError(common.CodeNotFound, "intake not found", common.ErrNotFound)
	}
	cp := *f.intake
	return &cp, nil
}

func (f *fakeQuoteStore) GetQuote(_ context.Context, quoteID uuid.UUID) (*entity.Quote, error) {
	if f.quote == nil || f.quote.ID != quoteID {
		return nil, common.NewAppError(common.CodeNotFound, "quote not found", common.ErrNotFound)
	}
	return f.quote, nil
}

func (f *fakeQuoteStore) CreateQuoteShell(_ context.Context, q *entity.Quote) error {
	f.quote = q
	return nil
}

func (f *fakeQuoteStore) CountLineItems(context.Context, uuid.UUID) (int, error) {
	return len(f.items), nil
}

func (f *fakeQuoteStore) CountLineItemsExcluding(_ context.Context, _ uuid.UUID, notesPattern string) (int, error) {
	needle := strings.Trim(notesPattern, "%")
	n := 0
	for _, li := range f.items {
		if !strings.Contains(li.Notes, needle) {
			n++
		}
	}
	return n, nil
}

func (f *fakeQuoteStore) InsertLineItems(_ context.Context, items []entity.QuoteLineItem) error {
	f.items = append(f.items, items...)
	f.inserted += len(items)
	return nil
}

func (f *fakeQuoteStore) DeleteLineItemsMatching(_ context.Context, _ uuid.UUID, notesPattern string) (int64, error) {
	f.deleteCalls++
	needle := strings.Trim(notesPattern, "%")
	kept := f.items[:0]
	for _, li := range f.items {
		if strings.Contains(li.Notes, needle) {
			f.evicted++
			continue
		}
		kept = append(kept, li)
	}
	f.items = kept
	return f.evicted, nil
}

func (f *fakeQuoteStore) MatchOrCreateCustomer(_ context.Context, userID uuid.UUID, name, email, phone string) (*entity.Customer, error) {
	c := entity.Customer{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          name,
		Email:         email,
		Phone:         phone,
		IsPlaceholder: name == "",
	}
	f.customers = append(f.customers, c)
	return &c, nil
}

func (f *fakeQuoteStore) FinishIntake(_ context.Context, _, quoteID uuid.UUID, rec *entity.ExtractionRecord, status constants.IntakeStatus) error {
	f.intake.CreatedQuoteID = &quoteID
	f.intake.Extraction = rec
	f.intake.Status = status
	f.finished = status
	return nil
}

type fakePricing struct {
	profile *entity.PricingProfile
	err     error
}

func (f *fakePricing) GetEffective(context.Context, uuid.UUID) (*entity.PricingProfile, error) {
	return f.profile, f.err
}

func gatedIntake() *entity.VoiceIntake {
	rec := &entity.ExtractionRecord{}
	rec.Job.Title = entity.NewConfident("Fence repair", 0.85)
	rec.Time.LabourEntries = []entity.LabourEntry{
		{Description: "fence work", Hours: entity.NewConfident(6.0, 0.85)},
	}
	rec.Quality.OverallConfidence = 0.85
	return &entity.VoiceIntake{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		Status:     constants.IntakeStatusExtracted,
		Extraction: rec,
	}
}

func newMaterializeStage(store *fakeQuoteStore) *MaterializeStage {
	return NewMaterializeStage(store, &fakePricing{profile: testProfile()}, nil)
}

func TestMaterializeCreatesQuote(t *testing.T) {
	intake := gatedIntake()
	store := &fakeQuoteStore{intake: intake}
	stage := newMaterializeStage(store)

	res, err := stage.Run(context.Background(), intake.ID, intake.UserID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.IdempotentReplay || res.UsedPlaceholders {
		t.Fatalf("result = %+v, want fresh non-placeholder quote", res)
	}
	if res.Status != constants.IntakeStatusQuoteCreated {
		t.Fatalf("status = %s, want quote_created", res.Status)
	}
	if store.quote == nil || store.quote.Title != "Fence repair" {
		t.Fatalf("quote = %+v", store.quote)
	}
	if len(store.items) != 1 || store.items[0].LineTotalCents != 60000 {
		t.Fatalf("items = %+v, want one 6h labour line at 60000", store.items)
	}
	if store.intake.Extraction.PricingUsed == nil {
		t.Fatal("pricing snapshot must be written on success")
	}
	if len(store.customers) != 1 {
		t.Fatalf("customers created = %d, want 1", len(store.customers))
	}
}

func TestMaterializeIdempotentReplay(t *testing.T) {
	intake := gatedIntake()
	quoteID := uuid.New()
	intake.CreatedQuoteID = &quoteID
	intake.Status = constants.IntakeStatusQuoteCreated
	store := &fakeQuoteStore{
		intake: intake,
		quote:  &entity.Quote{ID: quoteID, UserID: intake.UserID},
		items: []entity.QuoteLineItem{
			{QuoteID: quoteID, Description: "existing", Position: 0},
		},
	}
	stage := newMaterializeStage(store)

	res, err := stage.Run(context.Background(), intake.ID, intake.UserID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.IdempotentReplay {
		t.Fatalf("result = %+v, want idempotent replay", res)
	}
	if res.QuoteID != quoteID || res.LineItemCount != 1 {
		t.Fatalf("result = %+v", res)
	}
	if store.inserted != 0 {
		t.Fatalf("inserted %d items on a replay, want 0", store.inserted)
	}
}

func TestMaterializeRefillsEmptyShell(t *testing.T) {
	intake := gatedIntake()
	quoteID := uuid.New()
	intake.CreatedQuoteID = &quoteID
	store := &fakeQuoteStore{
		intake: intake,
		quote:  &entity.Quote{ID: quoteID, UserID: intake.UserID, Title: "Fence repair"},
	}
	stage := newMaterializeStage(store)

	res, err := stage.Run(context.Background(), intake.ID, intake.UserID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.IdempotentReplay {
		t.Fatal("an empty shell must be filled, not replayed")
	}
	if res.QuoteID != quoteID {
		t.Fatalf("quote id = %v, want the existing shell %v", res.QuoteID, quoteID)
	}
	if store.inserted == 0 {
		t.Fatal("want items inserted into the existing shell")
	}
}

func TestMaterializeRealBatchEvictsPlaceholders(t *testing.T) {
	intake := gatedIntake()
	store := &fakeQuoteStore{intake: intake}

	stage := newMaterializeStage(store)
	if _, err := stage.Run(context.Background(), intake.ID, intake.UserID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if store.deleteCalls != 1 {
		t.Fatalf("placeholder eviction ran %d times, want once alongside a real batch", store.deleteCalls)
	}
	for _, li := range store.items {
		if li.IsPlaceholder() {
			t.Fatalf("placeholder %+v coexists with real items", li)
		}
	}
}

func TestMaterializeSparseExtractionUsesPlaceholders(t *testing.T) {
	intake := gatedIntake()
	intake.Extraction = &entity.ExtractionRecord{}
	store := &fakeQuoteStore{intake: intake}
	stage := newMaterializeStage(store)

	res, err := stage.Run(context.Background(), intake.ID, intake.UserID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.UsedPlaceholders {
		t.Fatalf("result = %+v, want placeholder degradation flagged", res)
	}
	if res.LineItemCount != 2 {
		t.Fatalf("line items = %d, want the placeholder pair", res.LineItemCount)
	}
	if store.deleteCalls != 0 {
		t.Fatal("a placeholder-only batch must not trigger eviction")
	}
}

func placeholderQuoteStore(intake *entity.VoiceIntake) *fakeQuoteStore {
	quoteID := uuid.New()
	intake.CreatedQuoteID = &quoteID
	note := constants.PlaceholderMarker + ": replace before sending"
	return &fakeQuoteStore{
		intake: intake,
		quote:  &entity.Quote{ID: quoteID, UserID: intake.UserID, Title: "Quote"},
		items: []entity.QuoteLineItem{
			{QuoteID: quoteID, ItemType: constants.LineItemLabour, Description: "Labour", Notes: note},
			{QuoteID: quoteID, ItemType: constants.LineItemMaterials, Description: "Materials", Notes: note, Position: 1},
		},
	}
}

func TestMaterializeCorrectedAfterPlaceholdersRebuilds(t *testing.T) {
	// Sparse first run left a placeholder pair; the user has since corrected
	// the extraction back to real labour data. The second run must rebuild,
	// not replay the placeholders.
	intake := gatedIntake()
	store := placeholderQuoteStore(intake)
	stage := newMaterializeStage(store)

	res, err := stage.Run(context.Background(), intake.ID, intake.UserID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.IdempotentReplay {
		t.Fatal("a placeholder-only quote must not be treated as final")
	}
	if res.UsedPlaceholders {
		t.Fatalf("result = %+v, want real items from the corrected extraction", res)
	}
	if store.deleteCalls != 1 || store.evicted != 2 {
		t.Fatalf("eviction calls = %d evicted = %d, want the stale pair removed", store.deleteCalls, store.evicted)
	}
	if len(store.items) != 1 || store.items[0].LineTotalCents != 60000 {
		t.Fatalf("items = %+v, want one 6h labour line at 60000", store.items)
	}
	for _, li := range store.items {
		if li.IsPlaceholder() {
			t.Fatalf("placeholder %+v survived a real rebuild", li)
		}
	}
	if res.QuoteID != store.quote.ID {
		t.Fatalf("quote id = %v, want the existing quote reused", res.QuoteID)
	}
}

func TestMaterializeStillSparseReplacesPlaceholderPair(t *testing.T) {
	intake := gatedIntake()
	intake.Extraction = &entity.ExtractionRecord{}
	store := placeholderQuoteStore(intake)
	stage := newMaterializeStage(store)

	res, err := stage.Run(context.Background(), intake.ID, intake.UserID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.IdempotentReplay {
		t.Fatal("a placeholder-only quote must not be treated as final")
	}
	if !res.UsedPlaceholders || res.LineItemCount != 2 {
		t.Fatalf("result = %+v, want a fresh placeholder pair", res)
	}
	if len(store.items) != 2 {
		t.Fatalf("items = %d, want the stale pair replaced, not stacked", len(store.items))
	}
}

func TestMaterializeWrongStateRejected(t *testing.T) {
	intake := gatedIntake()
	intake.Status = constants.IntakeStatusCaptured
	intake.Extraction = nil
	store := &fakeQuoteStore{intake: intake}
	stage := newMaterializeStage(store)

	_, err := stage.Run(context.Background(), intake.ID, intake.UserID)
	if common.ErrorCode(err) != common.CodeInvalidState {
		t.Fatalf("code = %q, want %q", common.ErrorCode(err), common.CodeInvalidState)
	}
}

func TestMaterializeReviewStatusPreserved(t *testing.T) {
	intake := gatedIntake()
	intake.Status = constants.IntakeStatusNeedsUserReview
	intake.Extraction.Quality.RequiresUserConfirmation = true
	store := &fakeQuoteStore{intake: intake}
	stage := newMaterializeStage(store)

	res, err := stage.Run(context.Background(), intake.ID, intake.UserID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != constants.IntakeStatusNeedsUserReview {
		t.Fatalf("status = %s, want review preserved until the user confirms", res.Status)
	}
}

func TestMaterializeBoundCustomerSkipsCreation(t *testing.T) {
	intake := gatedIntake()
	customerID := uuid.New()
	intake.CustomerID = &customerID
	store := &fakeQuoteStore{intake: intake}
	stage := newMaterializeStage(store)

	if _, err := stage.Run(context.Background(), intake.ID, intake.UserID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.customers) != 0 {
		t.Fatalf("created %d customers, want bound id reused", len(store.customers))
	}
	if store.quote.CustomerID != customerID {
		t.Fatalf("quote customer = %v, want bound %v", store.quote.CustomerID, customerID)
	}
}
