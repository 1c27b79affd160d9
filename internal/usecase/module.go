package usecase

import "go.uber.org/fx"

// Module provides the command handler to the fx container.
var Module = fx.Provide(NewCommandHandler)
