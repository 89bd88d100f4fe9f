package presenter

import (
	"io"
	"sync"

	"webarchive/pkg/domain/entity"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// stageBar pairs a bar with whether its total was known up front.
type stageBar struct {
	bar     *mpb.Bar
	unknown bool
}

// Progress renders one mpb bar per pipeline stage. Implements
// service.PipelineObserver; events may arrive from multiple goroutines.
type Progress struct {
	progress *mpb.Progress
	mu       sync.Mutex
	bars     map[entity.Stage]stageBar
}

// NewProgress creates a progress renderer writing to out.
func NewProgress(out io.Writer) *Progress {
	return &Progress{
		progress: mpb.New(mpb.WithOutput(out), mpb.WithWidth(48)),
		bars:     make(map[entity.Stage]stageBar),
	}
}

// OnStageStart adds a bar for the stage. total -1 means the total is
// unknown up front and will be learned from progress events.
func (p *Progress) OnStageStart(stage entity.Stage, total int64) {
	unknown := total < 0
	if unknown {
		total = 0
	}

	bar := p.progress.AddBar(total,
		mpb.BarOptional(mpb.BarRemoveOnComplete(), false),
		mpb.PrependDecorators(
			decor.Name(string(stage), decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("[%d / %d]", decor.WCSyncWidth),
			decor.Percentage(decor.WCSyncSpace),
		),
	)

	p.mu.Lock()
	p.bars[stage] = stageBar{bar: bar, unknown: unknown}
	p.mu.Unlock()
}

// OnStageProgress advances the stage's bar. An unknown total grows with
// the count so the bar never reads as finished early.
func (p *Progress) OnStageProgress(stage entity.Stage, completed int64) {
	p.mu.Lock()
	sb, ok := p.bars[stage]
	p.mu.Unlock()
	if !ok {
		return
	}

	sb.bar.SetCurrent(completed)
	if sb.unknown {
		sb.bar.SetTotal(completed, false)
	}
}

// OnStageEnd completes the stage's bar at whatever count it reached.
func (p *Progress) OnStageEnd(stage entity.Stage) {
	p.mu.Lock()
	sb, ok := p.bars[stage]
	p.mu.Unlock()
	if !ok {
		return
	}
	sb.bar.SetTotal(-1, true)
}

func (p *Progress) OnStatsUpdate(entity.Stats) {}

func (p *Progress) OnSubdomain(entity.Hostname) {}

// Wait stops the render loop. Shutdown rather than Wait, because an
// aborted run leaves incomplete bars behind.
func (p *Progress) Wait() {
	p.progress.Shutdown()
}
