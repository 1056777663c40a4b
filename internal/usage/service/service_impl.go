package service

import (
	"context"
	"errors"
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/creditdash/internal/clock"
	customerdomain "github.com/smallbiznis/creditdash/internal/customer/domain"
	"github.com/smallbiznis/creditdash/internal/observability/metrics"
	"github.com/smallbiznis/creditdash/internal/usage/domain"
	"github.com/smallbiznis/creditdash/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Provider  domain.UsageProvider
	Customers customerdomain.Service
	Metrics   *metrics.Metrics `optional:"true"`
}

type service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	provider  domain.UsageProvider
	customers customerdomain.Service
	metrics   *metrics.Metrics
	fence     *fetchFence
}

func New(p Params) domain.Service {
	return &service{
		db:        p.DB,
		log:       p.Log,
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		provider:  p.Provider,
		customers: p.Customers,
		metrics:   p.Metrics,
		fence:     newFetchFence(),
	}
}

// resolve validates the request and loads the customer before any network
// call is made.
func (s *service) resolve(ctx context.Context, customerID string, window domain.Window) (customerdomain.Customer, error) {
	if _, ok := usercontext.UserIDFromContext(ctx); !ok {
		return customerdomain.Customer{}, domain.ErrInvalidUser
	}
	if customerID == "" {
		return customerdomain.Customer{}, domain.ErrInvalidCustomer
	}
	if err := window.Validate(); err != nil {
		return customerdomain.Customer{}, err
	}

	customer, err := s.customers.GetByID(ctx, customerdomain.GetCustomerRequest{ID: customerID})
	if err != nil {
		switch {
		case errors.Is(err, customerdomain.ErrInvalidID):
			return customerdomain.Customer{}, domain.ErrInvalidCustomer
		case errors.Is(err, customerdomain.ErrNotFound):
			return customerdomain.Customer{}, domain.ErrCustomerNotFound
		}
		return customerdomain.Customer{}, err
	}
	return customer, nil
}

func (s *service) Fetch(ctx context.Context, req domain.FetchRequest) (domain.FetchResult, error) {
	customer, err := s.resolve(ctx, req.CustomerID, req.Window)
	if err != nil {
		return domain.FetchResult{}, err
	}
	return s.fetch(ctx, customer, req.Window)
}

// fetch walks the three tiers: live provider call, cached rows, synthetic
// fallback. It never fails on provider or cache errors, it degrades.
func (s *service) fetch(ctx context.Context, customer customerdomain.Customer, window domain.Window) (domain.FetchResult, error) {
	seq := s.fence.Begin(customer.ID)

	creds := domain.ProviderCredentials{
		APIKey:           customer.APIKey,
		ManagedAccountID: customer.ManagedAccountID,
	}
	providerRecords, totals, err := s.provider.FetchUsage(ctx, creds, window)
	if err != nil {
		var perr *domain.ProviderError
		if errors.As(err, &perr) {
			s.metrics.RecordProviderError(ctx, perr.StatusCode)
		} else {
			s.metrics.RecordProviderError(ctx, 0)
		}
		s.log.Warn("provider usage fetch failed, falling back to cache",
			zap.String("customer_id", customer.ID.String()),
			zap.Error(err),
		)
	}

	if err == nil {
		// An empty success is still authoritative: the window really has
		// no usage, so the cached rows for it must go too.
		records := s.buildRecords(customer, providerRecords)
		s.writeCache(ctx, customer, window, seq, records)

		totalQuantity, totalCost := domain.SumTotals(records)
		if totals != nil {
			totalQuantity = totals.TotalQuantity
			totalCost = totals.TotalCost
		}
		s.metrics.RecordUsageFetch(ctx, string(domain.SourceLive))
		return domain.FetchResult{
			Records:       records,
			TotalMessages: totalQuantity,
			TotalCost:     totalCost,
			Source:        domain.SourceLive,
		}, nil
	}

	cached, cacheErr := s.repo.Read(ctx, s.db, customer.UserID, customer.ID, window)
	if cacheErr != nil {
		s.log.Error("reading cached usage failed",
			zap.String("customer_id", customer.ID.String()),
			zap.Error(cacheErr),
		)
	}
	if len(cached) > 0 {
		totalQuantity, totalCost := domain.SumTotals(cached)
		s.metrics.RecordUsageFetch(ctx, string(domain.SourceCache))
		return domain.FetchResult{
			Records:       cached,
			TotalMessages: totalQuantity,
			TotalCost:     totalCost,
			Source:        domain.SourceCache,
		}, nil
	}

	fallback := fallbackRecords(customer.UserID, customer.ID, window)
	totalQuantity, totalCost := domain.SumTotals(fallback)
	s.metrics.RecordUsageFetch(ctx, string(domain.SourceFallback))
	return domain.FetchResult{
		Records:       fallback,
		TotalMessages: totalQuantity,
		TotalCost:     totalCost,
		Source:        domain.SourceFallback,
	}, nil
}

func (s *service) buildRecords(customer customerdomain.Customer, providerRecords []domain.ProviderRecord) []domain.UsageRecord {
	now := s.clock.Now()
	records := make([]domain.UsageRecord, 0, len(providerRecords))
	for _, pr := range providerRecords {
		records = append(records, domain.UsageRecord{
			ID:         s.genID.Generate(),
			UserID:     customer.UserID,
			CustomerID: customer.ID,
			Date:       pr.Date,
			CreditType: pr.CreditType,
			Quantity:   pr.Quantity,
			Cost:       pr.Cost,
			CreatedAt:  now,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date < records[j].Date
		}
		return records[i].CreditType < records[j].CreditType
	})
	return records
}

// writeCache replaces the cached window unless a newer fetch for the same
// customer started while the provider call was in flight. Cache write
// failures are logged but never surfaced, the live result is still good.
func (s *service) writeCache(ctx context.Context, customer customerdomain.Customer, window domain.Window, seq uint64, records []domain.UsageRecord) {
	if !s.fence.IsCurrent(customer.ID, seq) {
		s.metrics.RecordStaleDiscard(ctx)
		s.log.Debug("discarding stale usage response",
			zap.String("customer_id", customer.ID.String()),
		)
		return
	}

	if err := s.repo.Replace(ctx, s.db, customer.UserID, customer.ID, window, records); err != nil {
		s.log.Error("caching usage records failed",
			zap.String("customer_id", customer.ID.String()),
			zap.Error(err),
		)
		return
	}
	s.metrics.RecordCacheWrite(ctx)
}

func (s *service) Export(ctx context.Context, req domain.ExportRequest) (domain.Export, error) {
	window := domain.Window{Start: req.Start, End: req.End}
	customer, err := s.resolve(ctx, req.CustomerID, window)
	if err != nil {
		return domain.Export{}, err
	}

	result, err := s.fetch(ctx, customer, window)
	if err != nil {
		return domain.Export{}, err
	}

	content, err := renderCSV(result.Records, result.TotalMessages, result.TotalCost)
	if err != nil {
		return domain.Export{}, err
	}
	return domain.Export{
		Filename: exportFilename(customer.Name, window),
		Content:  content,
	}, nil
}
