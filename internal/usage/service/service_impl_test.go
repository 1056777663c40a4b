package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/creditdash/internal/clock"
	customerdomain "github.com/smallbiznis/creditdash/internal/customer/domain"
	"github.com/smallbiznis/creditdash/internal/usage/domain"
	"github.com/smallbiznis/creditdash/internal/usage/repository"
	"github.com/smallbiznis/creditdash/internal/usercontext"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type providerStub struct {
	mu      sync.Mutex
	calls   int
	records []domain.ProviderRecord
	totals  *domain.ProviderTotals
	err     error
}

func (p *providerStub) FetchUsage(ctx context.Context, creds domain.ProviderCredentials, window domain.Window) ([]domain.ProviderRecord, *domain.ProviderTotals, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return nil, nil, p.err
	}
	return p.records, p.totals, nil
}

func (p *providerStub) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type customersStub struct {
	customer customerdomain.Customer
	err      error
}

func (c *customersStub) Create(context.Context, customerdomain.CreateCustomerRequest) (customerdomain.Customer, error) {
	return customerdomain.Customer{}, c.err
}

func (c *customersStub) List(context.Context, customerdomain.ListCustomerRequest) (customerdomain.ListCustomerResponse, error) {
	return customerdomain.ListCustomerResponse{}, c.err
}

func (c *customersStub) GetByID(ctx context.Context, req customerdomain.GetCustomerRequest) (customerdomain.Customer, error) {
	if c.err != nil {
		return customerdomain.Customer{}, c.err
	}
	if req.ID != c.customer.ID.String() {
		return customerdomain.Customer{}, customerdomain.ErrNotFound
	}
	return c.customer, nil
}

func (c *customersStub) Update(context.Context, customerdomain.UpdateCustomerRequest) (customerdomain.Customer, error) {
	return customerdomain.Customer{}, c.err
}

func (c *customersStub) Delete(context.Context, customerdomain.DeleteCustomerRequest) error {
	return c.err
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

func setupUsageService(t *testing.T, node *snowflake.Node, provider domain.UsageProvider) (*service, *gorm.DB, customerdomain.Customer, context.Context) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.Exec(`CREATE TABLE usage_records (
		id BIGINT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		customer_id BIGINT NOT NULL,
		date TEXT NOT NULL,
		credit_type TEXT NOT NULL,
		quantity BIGINT NOT NULL,
		cost DOUBLE PRECISION NOT NULL,
		created_at DATETIME NOT NULL
	)`).Error; err != nil {
		t.Fatalf("create usage_records: %v", err)
	}

	userID := node.Generate()
	customer := customerdomain.Customer{
		ID:               node.Generate(),
		UserID:           userID,
		Name:             "Customer A",
		APIKey:           "key",
		ManagedAccountID: "acct",
	}

	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clock.NewFakeClock(time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)),
		Repo:      repository.Provide(),
		Provider:  provider,
		Customers: &customersStub{customer: customer},
	}).(*service)

	ctx := usercontext.WithUserID(context.Background(), int64(userID))
	return svc, db, customer, ctx
}

func countUsageRows(t *testing.T, db *gorm.DB) int {
	t.Helper()
	var count int
	if err := db.Raw(`SELECT COUNT(1) FROM usage_records`).Scan(&count).Error; err != nil {
		t.Fatalf("count usage rows: %v", err)
	}
	return count
}

func TestFetchLiveWritesCache(t *testing.T) {
	node := mustNode(t)
	provider := &providerStub{
		records: []domain.ProviderRecord{
			{Date: "2025-06-02", CreditType: "WhatsApp - SMS", Quantity: 10, Cost: 0.5},
			{Date: "2025-06-01", CreditType: "WhatsApp - SMS", Quantity: 20, Cost: 1.0},
		},
	}
	svc, db, customer, ctx := setupUsageService(t, node, provider)

	result, err := svc.Fetch(ctx, domain.FetchRequest{
		CustomerID: customer.ID.String(),
		Window:     domain.Window{Start: "2025-06-01", End: "2025-06-30"},
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.Source != domain.SourceLive {
		t.Fatalf("expected live source, got %s", result.Source)
	}
	if result.TotalMessages != 30 || result.TotalCost != 1.5 {
		t.Fatalf("unexpected totals: %d / %f", result.TotalMessages, result.TotalCost)
	}
	if result.Records[0].Date != "2025-06-01" {
		t.Fatalf("expected records sorted by date, got %s first", result.Records[0].Date)
	}
	if count := countUsageRows(t, db); count != 2 {
		t.Fatalf("expected 2 cached rows, got %d", count)
	}
}

func TestFetchProviderTotalsTakePrecedence(t *testing.T) {
	node := mustNode(t)
	provider := &providerStub{
		records: []domain.ProviderRecord{
			{Date: "2025-06-01", CreditType: "WhatsApp - SMS", Quantity: 10, Cost: 0.5},
		},
		totals: &domain.ProviderTotals{TotalQuantity: 999, TotalCost: 123.45},
	}
	svc, _, customer, ctx := setupUsageService(t, node, provider)

	result, err := svc.Fetch(ctx, domain.FetchRequest{
		CustomerID: customer.ID.String(),
		Window:     domain.Window{Start: "2025-06-01", End: "2025-06-30"},
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.TotalMessages != 999 || result.TotalCost != 123.45 {
		t.Fatalf("expected provider totals to win, got %d / %f", result.TotalMessages, result.TotalCost)
	}
}

func TestFetchFallsBackToCache(t *testing.T) {
	node := mustNode(t)
	provider := &providerStub{err: &domain.ProviderError{StatusCode: 503}}
	svc, db, customer, ctx := setupUsageService(t, node, provider)

	if err := db.Exec(
		`INSERT INTO usage_records (id, user_id, customer_id, date, credit_type, quantity, cost, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		node.Generate(), customer.UserID, customer.ID, "2025-06-10", "WhatsApp - SMS", 42, 2.1, time.Now().UTC(),
	).Error; err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	result, err := svc.Fetch(ctx, domain.FetchRequest{
		CustomerID: customer.ID.String(),
		Window:     domain.Window{Start: "2025-06-01", End: "2025-06-30"},
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.Source != domain.SourceCache {
		t.Fatalf("expected cache source, got %s", result.Source)
	}
	if result.TotalMessages != 42 || result.TotalCost != 2.1 {
		t.Fatalf("unexpected cached totals: %d / %f", result.TotalMessages, result.TotalCost)
	}
}

func TestFetchFallbackDataset(t *testing.T) {
	node := mustNode(t)
	provider := &providerStub{err: &domain.ProviderError{StatusCode: 500}}
	svc, _, customer, ctx := setupUsageService(t, node, provider)

	result, err := svc.Fetch(ctx, domain.FetchRequest{
		CustomerID: customer.ID.String(),
		Window:     domain.Window{Start: "2025-06-01", End: "2025-06-30"},
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.Source != domain.SourceFallback {
		t.Fatalf("expected fallback source, got %s", result.Source)
	}
	if len(result.Records) != 4 {
		t.Fatalf("expected 4 fallback rows, got %d", len(result.Records))
	}
	if result.TotalMessages != 895 || result.TotalCost != 45.00 {
		t.Fatalf("unexpected fallback totals: %d / %f", result.TotalMessages, result.TotalCost)
	}
	if result.Records[0].Date != "2025-06-01" || result.Records[2].Date != "2025-06-30" {
		t.Fatalf("fallback rows not pinned to window bounds: %+v", result.Records)
	}
}

func TestFetchEmptyLiveResultClearsCachedWindow(t *testing.T) {
	node := mustNode(t)
	provider := &providerStub{}
	svc, db, customer, ctx := setupUsageService(t, node, provider)

	if err := db.Exec(
		`INSERT INTO usage_records (id, user_id, customer_id, date, credit_type, quantity, cost, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		node.Generate(), customer.UserID, customer.ID, "2025-06-10", "WhatsApp - SMS", 42, 2.1, time.Now().UTC(),
	).Error; err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	result, err := svc.Fetch(ctx, domain.FetchRequest{
		CustomerID: customer.ID.String(),
		Window:     domain.Window{Start: "2025-06-01", End: "2025-06-30"},
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.Source != domain.SourceLive {
		t.Fatalf("expected live source for empty success, got %s", result.Source)
	}
	if len(result.Records) != 0 {
		t.Fatalf("expected no records, got %d", len(result.Records))
	}
	if result.TotalMessages != 0 || result.TotalCost != 0 {
		t.Fatalf("expected zero totals, got %d / %f", result.TotalMessages, result.TotalCost)
	}
	if count := countUsageRows(t, db); count != 0 {
		t.Fatalf("expected cached window cleared, got %d rows", count)
	}
}

func TestFetchEmptyLiveResultUsesProviderTotals(t *testing.T) {
	node := mustNode(t)
	provider := &providerStub{
		totals: &domain.ProviderTotals{TotalQuantity: 7, TotalCost: 0.35},
	}
	svc, _, customer, ctx := setupUsageService(t, node, provider)

	result, err := svc.Fetch(ctx, domain.FetchRequest{
		CustomerID: customer.ID.String(),
		Window:     domain.Window{Start: "2025-06-01", End: "2025-06-30"},
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.Source != domain.SourceLive {
		t.Fatalf("expected live source, got %s", result.Source)
	}
	if result.TotalMessages != 7 || result.TotalCost != 0.35 {
		t.Fatalf("expected provider totals, got %d / %f", result.TotalMessages, result.TotalCost)
	}
}

func TestFetchInvertedRangeFailsBeforeProviderCall(t *testing.T) {
	node := mustNode(t)
	provider := &providerStub{}
	svc, _, customer, ctx := setupUsageService(t, node, provider)

	_, err := svc.Fetch(ctx, domain.FetchRequest{
		CustomerID: customer.ID.String(),
		Window:     domain.Window{Start: "2025-06-30", End: "2025-06-01"},
	})
	if err != domain.ErrInvalidDateRange {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
	if provider.Calls() != 0 {
		t.Fatalf("expected no provider call on invalid range, got %d", provider.Calls())
	}
}

func TestFetchUnknownCustomer(t *testing.T) {
	node := mustNode(t)
	svc, _, _, ctx := setupUsageService(t, node, &providerStub{})

	_, err := svc.Fetch(ctx, domain.FetchRequest{
		CustomerID: node.Generate().String(),
		Window:     domain.Window{Start: "2025-06-01", End: "2025-06-30"},
	})
	if err != domain.ErrCustomerNotFound {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestFetchReplacesOverlappingWindowOnly(t *testing.T) {
	node := mustNode(t)
	provider := &providerStub{
		records: []domain.ProviderRecord{
			{Date: "2025-06-05", CreditType: "WhatsApp - SMS", Quantity: 5, Cost: 0.25},
		},
	}
	svc, db, customer, ctx := setupUsageService(t, node, provider)

	seed := func(date string) {
		if err := db.Exec(
			`INSERT INTO usage_records (id, user_id, customer_id, date, credit_type, quantity, cost, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			node.Generate(), customer.UserID, customer.ID, date, "WhatsApp - SMS", 1, 0.1, time.Now().UTC(),
		).Error; err != nil {
			t.Fatalf("seed %s: %v", date, err)
		}
	}
	seed("2025-06-02") // inside window, should be replaced
	seed("2025-05-20") // outside window, must survive

	if _, err := svc.Fetch(ctx, domain.FetchRequest{
		CustomerID: customer.ID.String(),
		Window:     domain.Window{Start: "2025-06-01", End: "2025-06-30"},
	}); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	var dates []string
	if err := db.Raw(`SELECT date FROM usage_records ORDER BY date`).Scan(&dates).Error; err != nil {
		t.Fatalf("read dates: %v", err)
	}
	if len(dates) != 2 || dates[0] != "2025-05-20" || dates[1] != "2025-06-05" {
		t.Fatalf("unexpected cache state after replace: %v", dates)
	}
}

func TestStaleResponseSkipsCacheWrite(t *testing.T) {
	node := mustNode(t)
	svc, db, customer, ctx := setupUsageService(t, node, &providerStub{})
	window := domain.Window{Start: "2025-06-01", End: "2025-06-30"}

	seq := svc.fence.Begin(customer.ID)
	svc.fence.Begin(customer.ID) // a newer fetch started meanwhile

	records := []domain.UsageRecord{{
		ID:         node.Generate(),
		UserID:     customer.UserID,
		CustomerID: customer.ID,
		Date:       "2025-06-01",
		CreditType: "WhatsApp - SMS",
		Quantity:   1,
		Cost:       0.1,
		CreatedAt:  time.Now().UTC(),
	}}
	svc.writeCache(ctx, customer, window, seq, records)

	if count := countUsageRows(t, db); count != 0 {
		t.Fatalf("expected stale write to be discarded, got %d rows", count)
	}
}

func TestFenceSequencing(t *testing.T) {
	fence := newFetchFence()
	node := mustNode(t)
	customerID := node.Generate()

	first := fence.Begin(customerID)
	if !fence.IsCurrent(customerID, first) {
		t.Fatalf("expected first fetch to be current")
	}
	second := fence.Begin(customerID)
	if fence.IsCurrent(customerID, first) {
		t.Fatalf("expected first fetch to be stale after second began")
	}
	if !fence.IsCurrent(customerID, second) {
		t.Fatalf("expected second fetch to be current")
	}

	other := node.Generate()
	if fence.IsCurrent(other, second) {
		t.Fatalf("fence must be scoped per customer")
	}
}

func TestExportCSV(t *testing.T) {
	node := mustNode(t)
	provider := &providerStub{
		records: []domain.ProviderRecord{
			{Date: "2025-06-01", CreditType: "WhatsApp - SMS", Quantity: 10, Cost: 0.5},
			{Date: "2025-06-02", CreditType: "WhatsApp - Voice Call", Quantity: 2, Cost: 1.25},
		},
	}
	svc, _, customer, ctx := setupUsageService(t, node, provider)

	export, err := svc.Export(ctx, domain.ExportRequest{
		CustomerID: customer.ID.String(),
		Start:      "2025-06-01",
		End:        "2025-06-30",
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	if export.Filename != "usage-report-customer-a-2025-06-01-2025-06-30.csv" {
		t.Fatalf("unexpected filename: %s", export.Filename)
	}

	want := "Date,Credit Type,Quantity,Cost\n" +
		"2025-06-01,WhatsApp - SMS,10,0.5000\n" +
		"2025-06-02,WhatsApp - Voice Call,2,1.2500\n" +
		"Total,,12,1.7500\n"
	if string(export.Content) != want {
		t.Fatalf("unexpected csv:\n%s", export.Content)
	}
}
