package ycloud

import (
	usagedomain "github.com/smallbiznis/creditdash/internal/usage/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("ycloud",
	fx.Provide(
		fx.Annotate(NewClient, fx.As(new(usagedomain.UsageProvider))),
	),
)
