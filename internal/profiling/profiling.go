// Package profiling ships continuous CPU and heap profiles to a Pyroscope server.
package profiling

import (
	"log/slog"

	"blog-pulse/internal/config"

	"github.com/grafana/pyroscope-go"
)

// ApplicationName is the name profiles are filed under
const ApplicationName = "blog-pulse"

// Start begins profiling when PYROSCOPE_SERVER_ADDRESS is set. The returned
// stop function is always safe to call.
func Start(cfg config.Config, log *slog.Logger) (func() error, error) {
	if cfg.PyroscopeServerAddr == "" {
		return func() error { return nil }, nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: ApplicationName,
		ServerAddress:   cfg.PyroscopeServerAddr,
		Tags:            map[string]string{"service": ApplicationName},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return nil, err
	}

	log.Info("continuous profiling enabled", "server", cfg.PyroscopeServerAddr)
	return profiler.Stop, nil
}
