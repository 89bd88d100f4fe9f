package service

import (
	"context"

	"webarchive/pkg/domain/entity"
)

// ArchiveFetcher retrieves the raw URL records for a domain.
type ArchiveFetcher interface {
	Fetch(ctx context.Context, domain entity.Domain) ([]entity.ArchiveRecord, error)
}

// HostResolver keeps the hostnames that currently resolve to at least one
// address, preserving input order. Lookup failures drop the hostname and
// never fail the batch.
type HostResolver interface {
	Resolve(ctx context.Context, hostnames []entity.Hostname) (kept []entity.Hostname, misses int)
}

// PipelineObserver receives progress and discovery events from the
// pipeline. It is an optional side channel: implementations must not
// affect correctness and must tolerate concurrent calls.
type PipelineObserver interface {
	// OnStageStart announces a stage. total is -1 when unknown up front.
	OnStageStart(stage entity.Stage, total int64)
	// OnStageProgress reports the number of items completed so far.
	OnStageProgress(stage entity.Stage, completed int64)
	// OnStageEnd marks a stage as finished.
	OnStageEnd(stage entity.Stage)
	// OnStatsUpdate delivers a snapshot of the run counters.
	OnStatsUpdate(stats entity.Stats)
	// OnSubdomain reports a newly extracted hostname.
	OnSubdomain(hostname entity.Hostname)
}

// NopObserver is a PipelineObserver that ignores every event.
type NopObserver struct{}

func (NopObserver) OnStageStart(entity.Stage, int64)    {}
func (NopObserver) OnStageProgress(entity.Stage, int64) {}
func (NopObserver) OnStageEnd(entity.Stage)             {}
func (NopObserver) OnStatsUpdate(entity.Stats)          {}
func (NopObserver) OnSubdomain(entity.Hostname)         {}
