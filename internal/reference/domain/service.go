package domain

import "context"

type Service interface {
	ListPlans(ctx context.Context) ([]Plan, error)
	IsValidPlan(ctx context.Context, name string) (bool, error)
}
