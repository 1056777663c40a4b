package usage

import (
	"github.com/smallbiznis/creditdash/internal/usage/repository"
	"github.com/smallbiznis/creditdash/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
