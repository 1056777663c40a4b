package reference

import (
	"github.com/smallbiznis/creditdash/internal/reference/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reference",
	fx.Provide(service.New),
)
