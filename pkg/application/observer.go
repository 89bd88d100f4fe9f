package application

import (
	"sync"

	"webarchive/pkg/domain/entity"
	"webarchive/pkg/domain/service"
)

// ObserverFanout broadcasts pipeline events to every registered
// observer. Registration happens during assembly, before the run starts.
type ObserverFanout struct {
	mu        sync.RWMutex
	observers []service.PipelineObserver
}

// NewObserverFanout creates an empty fanout.
func NewObserverFanout() *ObserverFanout {
	return &ObserverFanout{}
}

// Register adds an observer.
func (f *ObserverFanout) Register(observer service.PipelineObserver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, observer)
}

func (f *ObserverFanout) each(fn func(service.PipelineObserver)) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, observer := range f.observers {
		fn(observer)
	}
}

func (f *ObserverFanout) OnStageStart(stage entity.Stage, total int64) {
	f.each(func(o service.PipelineObserver) { o.OnStageStart(stage, total) })
}

func (f *ObserverFanout) OnStageProgress(stage entity.Stage, completed int64) {
	f.each(func(o service.PipelineObserver) { o.OnStageProgress(stage, completed) })
}

func (f *ObserverFanout) OnStageEnd(stage entity.Stage) {
	f.each(func(o service.PipelineObserver) { o.OnStageEnd(stage) })
}

func (f *ObserverFanout) OnStatsUpdate(stats entity.Stats) {
	f.each(func(o service.PipelineObserver) { o.OnStatsUpdate(stats) })
}

func (f *ObserverFanout) OnSubdomain(hostname entity.Hostname) {
	f.each(func(o service.PipelineObserver) { o.OnSubdomain(hostname) })
}
