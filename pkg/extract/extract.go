package extract

import (
	"net/url"
	"sort"
	"strings"

	"webarchive/pkg/domain/entity"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

// Extractor derives the unique hostname set from raw archive records.
// When scoped, hostnames outside the target's registrable domain
// (eTLD+1) are dropped.
type Extractor struct {
	scoped bool
	logger zerolog.Logger
}

// Result carries the extracted set plus the per-item discard counts.
type Result struct {
	Hostnames  []entity.Hostname
	Skipped    int64
	OutOfScope int64
}

// NewExtractor creates a scoped extractor.
func NewExtractor(logger zerolog.Logger) *Extractor {
	return &Extractor{
		scoped: true,
		logger: logger.With().Str("component", "extract").Logger(),
	}
}

// NewUnscopedExtractor creates an extractor that keeps every hostname
// regardless of the target domain.
func NewUnscopedExtractor(logger zerolog.Logger) *Extractor {
	return &Extractor{logger: logger.With().Str("component", "extract").Logger()}
}

// Extract parses each record as a URL, strips port and case, deduplicates
// and returns the set sorted ascending. Malformed records are skipped,
// never fatal.
func (e *Extractor) Extract(domain entity.Domain, records []entity.ArchiveRecord) Result {
	scope := e.scopeOf(domain)
	seen := make(map[string]bool, len(records))
	var res Result

	for _, record := range records {
		hostname, ok := e.hostnameOf(record)
		if !ok {
			res.Skipped++
			continue
		}
		if scope != "" && hostname != scope && !strings.HasSuffix(hostname, "."+scope) {
			res.OutOfScope++
			continue
		}
		if !seen[hostname] {
			seen[hostname] = true
			res.Hostnames = append(res.Hostnames, entity.Hostname(hostname))
		}
	}

	sort.Slice(res.Hostnames, func(i, j int) bool {
		return res.Hostnames[i] < res.Hostnames[j]
	})

	e.logger.Info().
		Int("hostnames", len(res.Hostnames)).
		Int64("skipped", res.Skipped).
		Int64("out_of_scope", res.OutOfScope).
		Msg("extraction finished")

	return res
}

// scopeOf returns the registrable domain of the target, or "" when the
// extractor is unscoped.
func (e *Extractor) scopeOf(domain entity.Domain) string {
	if !e.scoped {
		return ""
	}
	scope := domain.String()
	if root, err := publicsuffix.EffectiveTLDPlusOne(scope); err == nil {
		scope = root
	}
	return scope
}

// hostnameOf returns the normalized hostname of a record, or ok=false
// when the record has no usable authority component.
func (e *Extractor) hostnameOf(record entity.ArchiveRecord) (string, bool) {
	u, err := url.Parse(string(record))
	if err != nil {
		e.logger.Debug().Str("record", string(record)).Err(err).Msg("unparseable record")
		return "", false
	}

	hostname := strings.ToLower(u.Hostname())
	if hostname == "" || !strings.Contains(hostname, ".") {
		e.logger.Debug().Str("record", string(record)).Msg("record without hostname")
		return "", false
	}
	return hostname, true
}
