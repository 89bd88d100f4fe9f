package presenter

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"webarchive/pkg/domain/entity"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/olekukonko/ts"
)

// tableRowCap limits the result table in non-verbose mode.
const tableRowCap = 20

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

// Summary renders the final report of a run.
type Summary struct {
	out     io.Writer
	verbose bool
	width   int
}

// NewSummary creates a summary renderer. Verbose mode prints the full
// subdomain table plus run statistics.
func NewSummary(out io.Writer, verbose bool) *Summary {
	width := 80
	if size, err := ts.GetSize(); err == nil && size.Col() > 0 {
		width = size.Col()
	}
	return &Summary{out: out, verbose: verbose, width: width}
}

// Render prints the report for a finished run.
func (s *Summary) Render(result *entity.PipelineResult) {
	switch result.Outcome {
	case entity.OutcomeNoData:
		fmt.Fprintln(s.out, warnStyle.Render(
			fmt.Sprintf("No archived data found for %s", result.Domain)))
		return
	case entity.OutcomeNoSubdomains:
		fmt.Fprintln(s.out, warnStyle.Render(
			fmt.Sprintf("No subdomains could be extracted for %s", result.Domain)))
		s.renderStats(result)
		return
	}

	fmt.Fprintln(s.out, titleStyle.Render(
		fmt.Sprintf("Found %d subdomains for %s", len(result.Subdomains), result.Domain)))
	fmt.Fprintln(s.out)

	s.renderTable(result.Subdomains)
	s.renderStats(result)
	s.renderManifest(result.Manifest)
}

func (s *Summary) renderTable(subdomains []entity.Hostname) {
	shown := subdomains
	if !s.verbose && len(shown) > tableRowCap {
		shown = shown[:tableRowCap]
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Width(min(s.width, 64)).
		Headers("#", "Subdomain")
	for i, hostname := range shown {
		t.Row(strconv.Itoa(i+1), hostname.String())
	}
	fmt.Fprintln(s.out, t.Render())

	if len(shown) < len(subdomains) {
		fmt.Fprintln(s.out, dimStyle.Render(
			fmt.Sprintf("... and %d more (use --verbose to list all)", len(subdomains)-len(shown))))
	}
}

func (s *Summary) renderStats(result *entity.PipelineResult) {
	if !s.verbose {
		return
	}

	stats := result.Stats
	lines := []string{
		fmt.Sprintf("Records fetched:    %d", stats.RecordsFetched),
		fmt.Sprintf("Duplicate records:  %d", stats.DuplicateRecords),
		fmt.Sprintf("Unparseable:        %d", stats.ParseSkips),
		fmt.Sprintf("Out of scope:       %d", stats.OutOfScope),
		fmt.Sprintf("Unique hostnames:   %d", stats.Extracted),
		fmt.Sprintf("Resolved:           %d", stats.Resolved),
		fmt.Sprintf("Resolution misses:  %d", stats.ResolutionMisses),
		fmt.Sprintf("Filtered out:       %d", stats.FilteredOut),
	}

	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, headerStyle.Render("Statistics"))
	for _, line := range lines {
		fmt.Fprintln(s.out, "  "+line)
	}

	if len(result.Subdomains) > 0 {
		shortest, longest, total := result.Subdomains[0], result.Subdomains[0], 0
		for _, h := range result.Subdomains {
			if len(h) < len(shortest) {
				shortest = h
			}
			if len(h) > len(longest) {
				longest = h
			}
			total += len(h)
		}
		fmt.Fprintf(s.out, "  Average length:     %.1f\n", float64(total)/float64(len(result.Subdomains)))
		fmt.Fprintf(s.out, "  Shortest:           %s\n", shortest)
		fmt.Fprintf(s.out, "  Longest:            %s\n", longest)
	}
}

func (s *Summary) renderManifest(manifest map[string]string) {
	if len(manifest) == 0 {
		return
	}

	formats := make([]string, 0, len(manifest))
	for format := range manifest {
		formats = append(formats, format)
	}
	sort.Strings(formats)

	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, headerStyle.Render("Saved files"))
	for _, format := range formats {
		fmt.Fprintf(s.out, "  %-5s %s\n", format, manifest[format])
	}
}
