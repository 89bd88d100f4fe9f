package filter

import (
	"strings"

	"webarchive/pkg/domain/entity"

	"github.com/rs/zerolog"
)

// Engine applies a FilterSpec over resolved hostnames. All constraints
// are evaluated as a conjunction; order of evaluation does not affect the
// result.
type Engine struct {
	spec   *entity.FilterSpec
	logger zerolog.Logger
}

// NewEngine creates a filter engine. A nil or empty spec makes Apply the
// identity function.
func NewEngine(spec *entity.FilterSpec, logger zerolog.Logger) *Engine {
	return &Engine{
		spec:   spec,
		logger: logger.With().Str("component", "filter").Logger(),
	}
}

// Apply returns the hostnames that satisfy every configured constraint,
// preserving input order.
func (e *Engine) Apply(hostnames []entity.Hostname) []entity.Hostname {
	if e.spec.Empty() {
		return hostnames
	}

	kept := make([]entity.Hostname, 0, len(hostnames))
	for _, hostname := range hostnames {
		if e.matches(hostname.String()) {
			kept = append(kept, hostname)
		}
	}

	e.logger.Info().
		Int("in", len(hostnames)).
		Int("out", len(kept)).
		Msg("filters applied")

	return kept
}

func (e *Engine) matches(hostname string) bool {
	if e.spec.Regex != nil && !e.spec.Regex.MatchString(hostname) {
		return false
	}
	if e.spec.MinLength > 0 && len(hostname) < e.spec.MinLength {
		return false
	}
	if e.spec.MaxLength > 0 && len(hostname) > e.spec.MaxLength {
		return false
	}
	folded := strings.ToLower(hostname)
	for _, word := range e.spec.ExcludeWords {
		if strings.Contains(folded, word) {
			return false
		}
	}
	return true
}
