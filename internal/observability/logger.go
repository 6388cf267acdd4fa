package observability

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ServiceLogger returns a child of the global logger tagged with the
// service name. Callers are expected to have run logging.Configure first.
func ServiceLogger(service string) zerolog.Logger {
	return log.With().Str("service", service).Logger()
}
