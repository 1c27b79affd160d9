package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Module provides a dedicated registry and the service collectors.
var Module = fx.Options(
	fx.Provide(prometheus.NewRegistry),
	fx.Provide(func(reg *prometheus.Registry) prometheus.Gatherer { return reg }),
	fx.Provide(func(reg *prometheus.Registry) *Metrics { return New(reg) }),
)
