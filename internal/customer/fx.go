package customer

import (
	"github.com/smallbiznis/creditdash/internal/customer/repository"
	"github.com/smallbiznis/creditdash/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
