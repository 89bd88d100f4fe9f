package presenter

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"webarchive/pkg/domain/entity"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Dashboard is a TUI view of a running extraction. It implements both
// tea.Model and service.PipelineObserver; observer events arrive from
// pipeline goroutines and are folded into the view on the next tick.
type Dashboard struct {
	mu               sync.RWMutex
	stats            entity.Stats
	activeStage      entity.Stage
	stageProgress    int64
	stageTotal       int64
	recentSubdomains []string

	spin      spinner.Model
	width     int
	height    int
	startTime time.Time
}

type tickMsg time.Time

// NewDashboard creates a dashboard.
func NewDashboard() *Dashboard {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	return &Dashboard{
		spin:      sp,
		startTime: time.Now(),
	}
}

// Init initializes the dashboard.
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		d.spin.Tick,
		tea.EnterAltScreen,
	)
}

// Update handles dashboard updates.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c":
			return d, tea.Quit
		}

	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		return d, nil

	case tickMsg:
		return d, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		d.spin, cmd = d.spin.Update(msg)
		return d, cmd
	}

	return d, nil
}

// View renders the dashboard.
func (d *Dashboard) View() string {
	if d.width == 0 {
		return "Initializing..."
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	header := d.renderHeader()
	footer := d.renderFooter()

	availableHeight := d.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if availableHeight < 0 {
		availableHeight = 0
	}

	leftWidth := d.width / 2
	rightWidth := d.width - leftWidth

	row := lipgloss.JoinHorizontal(
		lipgloss.Top,
		d.renderPipelineStats(leftWidth, availableHeight),
		d.renderRecentDiscoveries(rightWidth, availableHeight),
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, row, footer)
}

// OnStageStart implements service.PipelineObserver.
func (d *Dashboard) OnStageStart(stage entity.Stage, total int64) {
	d.mu.Lock()
	d.activeStage = stage
	d.stageProgress = 0
	d.stageTotal = total
	d.mu.Unlock()
}

// OnStageProgress implements service.PipelineObserver.
func (d *Dashboard) OnStageProgress(stage entity.Stage, completed int64) {
	d.mu.Lock()
	if d.activeStage == stage {
		d.stageProgress = completed
	}
	d.mu.Unlock()
}

// OnStageEnd implements service.PipelineObserver.
func (d *Dashboard) OnStageEnd(stage entity.Stage) {
	d.mu.Lock()
	if d.activeStage == stage {
		d.stageTotal = d.stageProgress
	}
	d.mu.Unlock()
}

// OnStatsUpdate implements service.PipelineObserver.
func (d *Dashboard) OnStatsUpdate(stats entity.Stats) {
	d.mu.Lock()
	d.stats = stats
	d.mu.Unlock()
}

// OnSubdomain implements service.PipelineObserver.
func (d *Dashboard) OnSubdomain(hostname entity.Hostname) {
	d.mu.Lock()
	d.recentSubdomains = append(d.recentSubdomains, hostname.String())
	// Keep only the last 50
	if len(d.recentSubdomains) > 50 {
		d.recentSubdomains = d.recentSubdomains[len(d.recentSubdomains)-50:]
	}
	d.mu.Unlock()
}

func (d *Dashboard) renderHeader() string {
	headerTitleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7D56F4")).
		Padding(0, 1)

	timeStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#999999"))

	elapsed := time.Since(d.startTime).Round(time.Second)

	stage := string(d.activeStage)
	if stage == "" {
		stage = "starting"
	}
	progress := fmt.Sprintf("%d", d.stageProgress)
	if d.stageTotal > 0 {
		progress = fmt.Sprintf("%d / %d", d.stageProgress, d.stageTotal)
	}

	title := headerTitleStyle.Render("WebArchive Subdomain Extractor")
	info := timeStyle.Render(fmt.Sprintf(" %s %s [%s] | Elapsed: %s",
		d.spin.View(), stage, progress, elapsed))

	return title + info
}

func (d *Dashboard) renderPipelineStats(width, height int) string {
	statStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#874BFD")).
		Padding(1, 2).
		Width(width - 2).
		Height(height - 2)

	stats := []string{
		"Pipeline Statistics",
		"",
		fmt.Sprintf("Records Fetched:   %d", d.stats.RecordsFetched),
		fmt.Sprintf("Duplicates Seen:   %d", d.stats.DuplicateRecords),
		fmt.Sprintf("Unparseable:       %d", d.stats.ParseSkips),
		fmt.Sprintf("Out Of Scope:      %d", d.stats.OutOfScope),
		fmt.Sprintf("Unique Hostnames:  %d", d.stats.Extracted),
		fmt.Sprintf("Resolved:          %d", d.stats.Resolved),
		fmt.Sprintf("Resolution Misses: %d", d.stats.ResolutionMisses),
		fmt.Sprintf("Filtered Out:      %d", d.stats.FilteredOut),
	}

	elapsed := time.Since(d.startTime).Seconds()
	if elapsed > 0 && d.stats.RecordsFetched > 0 {
		stats = append(stats,
			"",
			fmt.Sprintf("Fetch Rate:        %.1f records/s", float64(d.stats.RecordsFetched)/elapsed),
		)
	}

	return statStyle.Render(strings.Join(stats, "\n"))
}

func (d *Dashboard) renderRecentDiscoveries(width, height int) string {
	discoveryStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Padding(1, 2).
		Width(width - 2).
		Height(height - 2)

	recentCount := len(d.recentSubdomains)

	lines := []string{
		fmt.Sprintf("Recent Discoveries (Total: %d)", d.stats.Extracted),
		"",
	}

	if recentCount == 0 {
		lines = append(lines, "No subdomains discovered yet...")
	} else {
		maxLines := height - 6
		if maxLines < 0 {
			maxLines = 0
		}
		start := 0
		if recentCount > maxLines {
			start = recentCount - maxLines
		}
		for i := start; i < recentCount; i++ {
			lines = append(lines, fmt.Sprintf("  %s", d.recentSubdomains[i]))
		}
	}

	return discoveryStyle.Render(strings.Join(lines, "\n"))
}

func (d *Dashboard) renderFooter() string {
	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#626262")).
		Padding(1, 0)

	return footerStyle.Render("Press 'q' or 'Ctrl+C' to quit")
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*250, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
