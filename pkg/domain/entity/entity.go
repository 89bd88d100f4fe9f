package entity

import (
	"regexp"
	"time"
)

// Domain is a validated, lowercase domain name. Construct via the
// service.Validator; a zero Domain is not valid.
type Domain string

// String returns the domain as a plain string.
func (d Domain) String() string {
	return string(d)
}

// ArchiveRecord is one raw line returned by the archive CDX index,
// holding a single historical URL.
type ArchiveRecord string

// Hostname is the normalized authority portion of an archived URL:
// lowercase, no scheme, no port, no path.
type Hostname string

// String returns the hostname as a plain string.
func (h Hostname) String() string {
	return string(h)
}

// FilterSpec bundles the optional post-resolution filters. Each field is
// independently optional; a zero value means no constraint on that axis.
type FilterSpec struct {
	Regex        *regexp.Regexp
	MinLength    int
	MaxLength    int
	ExcludeWords []string
}

// Empty reports whether no constraint is configured.
func (s *FilterSpec) Empty() bool {
	if s == nil {
		return true
	}
	return s.Regex == nil && s.MinLength == 0 && s.MaxLength == 0 && len(s.ExcludeWords) == 0
}

// Stage identifies a pipeline stage for progress reporting.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageExtract Stage = "extract"
	StageResolve Stage = "resolve"
	StageFilter  Stage = "filter"
	StageSave    Stage = "save"
)

// Outcome is the terminal state of a pipeline run. NoData and
// NoSubdomains are legitimate empty results, not errors.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeNoData
	OutcomeNoSubdomains
)

// Stats counts per-item events across the run. Skips and misses are
// absorbed locally by their stages and surface only here.
type Stats struct {
	RecordsFetched   int64
	DuplicateRecords int64
	ParseSkips       int64
	OutOfScope       int64
	Extracted        int64
	Resolved         int64
	ResolutionMisses int64
	FilteredOut      int64
	SaveErrors       int64
}

// PipelineResult is the immutable product of one run, consumed only by
// the result sink and the presenter.
type PipelineResult struct {
	Domain      Domain
	Subdomains  []Hostname
	Records     []ArchiveRecord
	Manifest    map[string]string
	Outcome     Outcome
	Stats       Stats
	ExtractedAt time.Time
}
