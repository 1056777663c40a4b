package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/creditdash/pkg/db/pagination"
)

type ListCustomerRequest struct {
	PageToken string
	PageSize  int32
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

// CustomerFields carries the editable fields shared by create and update.
// Optional fields stay nil when the caller leaves them unset; credits
// default to zero.
type CustomerFields struct {
	Name             string
	APIKey           string
	ManagedAccountID string
	CustomerNumber   *string
	Plan             *string
	Email            *string
	OpeningCredit    float64
	CurrentCredit    float64
	Metadata         map[string]any
}

type CreateCustomerRequest struct {
	CustomerFields
}

type UpdateCustomerRequest struct {
	ID string
	CustomerFields
}

type GetCustomerRequest struct {
	ID string
}

type DeleteCustomerRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(context.Context, GetCustomerRequest) (Customer, error)
	Update(context.Context, UpdateCustomerRequest) (Customer, error)
	Delete(context.Context, DeleteCustomerRequest) error
}

var (
	ErrInvalidUser           = errors.New("invalid_user")
	ErrInvalidName           = errors.New("invalid_name")
	ErrInvalidAPIKey         = errors.New("invalid_api_key")
	ErrInvalidManagedAccount = errors.New("invalid_managed_account_id")
	ErrInvalidEmail          = errors.New("invalid_email")
	ErrInvalidPlan           = errors.New("invalid_plan")
	ErrInvalidCredit         = errors.New("invalid_credit")
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidPageToken      = errors.New("invalid_page_token")
	ErrNotFound              = errors.New("not_found")
)
