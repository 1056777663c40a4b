package selection

import "go.uber.org/fx"

var Module = fx.Module("selection",
	fx.Provide(NewStore),
)
