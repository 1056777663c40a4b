package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/creditdash/internal/clock"
	"github.com/smallbiznis/creditdash/internal/customer/domain"
	refdomain "github.com/smallbiznis/creditdash/internal/reference/domain"
	"github.com/smallbiznis/creditdash/internal/usercontext"
	"github.com/smallbiznis/creditdash/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
	Plans refdomain.Service
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
	plans refdomain.Service
}

func New(p Params) domain.Service {
	return &service{
		db:    p.DB,
		log:   p.Log,
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		plans: p.Plans,
	}
}

func (s *service) validateFields(ctx context.Context, f domain.CustomerFields) error {
	if strings.TrimSpace(f.Name) == "" {
		return domain.ErrInvalidName
	}
	if strings.TrimSpace(f.APIKey) == "" {
		return domain.ErrInvalidAPIKey
	}
	if strings.TrimSpace(f.ManagedAccountID) == "" {
		return domain.ErrInvalidManagedAccount
	}
	if f.Email != nil && *f.Email != "" {
		if _, err := mail.ParseAddress(*f.Email); err != nil {
			return domain.ErrInvalidEmail
		}
	}
	if f.OpeningCredit < 0 || f.CurrentCredit < 0 {
		return domain.ErrInvalidCredit
	}
	if f.Plan != nil && *f.Plan != "" {
		ok, err := s.plans.IsValidPlan(ctx, *f.Plan)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidPlan
		}
	}
	return nil
}

func applyFields(customer *domain.Customer, f domain.CustomerFields) {
	customer.Name = strings.TrimSpace(f.Name)
	customer.APIKey = strings.TrimSpace(f.APIKey)
	customer.ManagedAccountID = strings.TrimSpace(f.ManagedAccountID)
	customer.CustomerNumber = f.CustomerNumber
	customer.Plan = f.Plan
	customer.Email = f.Email
	customer.OpeningCredit = f.OpeningCredit
	customer.CurrentCredit = f.CurrentCredit
	customer.Metadata = f.Metadata
}

func (s *service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return domain.Customer{}, domain.ErrInvalidUser
	}
	if err := s.validateFields(ctx, req.CustomerFields); err != nil {
		return domain.Customer{}, err
	}

	now := s.clock.Now()
	customer := domain.Customer{
		ID:        s.genID.Generate(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyFields(&customer, req.CustomerFields)

	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		s.log.Error("failed to insert customer", zap.Error(err))
		return domain.Customer{}, err
	}
	return customer, nil
}

func (s *service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return domain.ListCustomerResponse{}, domain.ErrInvalidUser
	}

	var cursor *domain.CustomerCursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListCustomerResponse{}, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return domain.ListCustomerResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return domain.ListCustomerResponse{}, domain.ErrInvalidPageToken
		}
		cursor = &domain.CustomerCursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 250 {
		pageSize = 250
	}

	customers, err := s.repo.List(ctx, s.db, userID, cursor, int(pageSize))
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(customers, pageSize, func(c *domain.Customer) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        c.ID.String(),
			CreatedAt: c.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	if pageInfo.HasMore && len(customers) > int(pageSize) {
		customers = customers[:pageSize]
	}

	resp := domain.ListCustomerResponse{
		PageInfo:  *pageInfo,
		Customers: make([]domain.Customer, 0, len(customers)),
	}
	for _, c := range customers {
		resp.Customers = append(resp.Customers, *c)
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, req domain.GetCustomerRequest) (domain.Customer, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return domain.Customer{}, domain.ErrInvalidUser
	}

	id, err := snowflake.ParseString(req.ID)
	if err != nil {
		return domain.Customer{}, domain.ErrInvalidID
	}

	customer, err := s.repo.FindByID(ctx, s.db, userID, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if customer == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *customer, nil
}

func (s *service) Update(ctx context.Context, req domain.UpdateCustomerRequest) (domain.Customer, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return domain.Customer{}, domain.ErrInvalidUser
	}

	id, err := snowflake.ParseString(req.ID)
	if err != nil {
		return domain.Customer{}, domain.ErrInvalidID
	}
	if err := s.validateFields(ctx, req.CustomerFields); err != nil {
		return domain.Customer{}, err
	}

	customer, err := s.repo.FindByID(ctx, s.db, userID, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if customer == nil {
		return domain.Customer{}, domain.ErrNotFound
	}

	applyFields(customer, req.CustomerFields)
	customer.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, customer); err != nil {
		s.log.Error("failed to update customer", zap.Error(err))
		return domain.Customer{}, err
	}
	return *customer, nil
}

func (s *service) Delete(ctx context.Context, req domain.DeleteCustomerRequest) error {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidUser
	}

	id, err := snowflake.ParseString(req.ID)
	if err != nil {
		return domain.ErrInvalidID
	}

	customer, err := s.repo.FindByID(ctx, s.db, userID, id)
	if err != nil {
		return err
	}
	if customer == nil {
		return domain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, userID, id)
}
