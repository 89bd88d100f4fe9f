package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"webarchive/pkg/domain/entity"

	"github.com/rs/zerolog"
)

// Known output formats.
const (
	FormatTxt  = "txt"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatRaw  = "raw"
)

const extractionDateLayout = "2006-01-02 15:04:05"

// Sink persists pipeline output. Every file is written to a temp file in
// the target directory and renamed into place, so an interrupted run
// never leaves a partial file behind.
type Sink struct {
	outputDir string
	logger    zerolog.Logger
}

// NewSink creates a sink writing into outputDir, creating it on demand.
func NewSink(outputDir string, logger zerolog.Logger) *Sink {
	return &Sink{
		outputDir: outputDir,
		logger:    logger.With().Str("component", "storage").Logger(),
	}
}

// document is the structured JSON output.
type document struct {
	Domain         string            `json:"domain"`
	SubdomainCount int               `json:"subdomain_count"`
	ExtractionDate string            `json:"extraction_date"`
	Subdomains     []entity.Hostname `json:"subdomains"`
}

// Save writes the hostnames in each requested format. A failing format
// is reported as a *entity.PersistenceError and does not prevent the
// remaining formats from being written. The returned manifest maps
// format name to the saved path.
func (s *Sink) Save(domain entity.Domain, hostnames []entity.Hostname, extractedAt time.Time, formats []string) (map[string]string, []error) {
	manifest := make(map[string]string)
	var errs []error

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		for _, format := range formats {
			errs = append(errs, &entity.PersistenceError{Format: format, Path: s.outputDir, Err: err})
		}
		return manifest, errs
	}

	base := sanitizeFilename(strings.ReplaceAll(domain.String(), ".", "_"))
	for _, format := range formats {
		path, err := s.saveFormat(format, base, domain, hostnames, extractedAt)
		if err != nil {
			s.logger.Error().Str("format", format).Err(err).Msg("format save failed")
			errs = append(errs, &entity.PersistenceError{Format: format, Path: path, Err: err})
			continue
		}
		s.logger.Info().Str("format", format).Str("path", path).Msg("results saved")
		manifest[format] = path
	}

	return manifest, errs
}

// SaveRaw dumps the unprocessed archive records, one original URL per
// line. This is a debugging artifact of the fetch stage.
func (s *Sink) SaveRaw(domain entity.Domain, records []entity.ArchiveRecord) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", &entity.PersistenceError{Format: FormatRaw, Path: s.outputDir, Err: err}
	}

	base := sanitizeFilename(strings.ReplaceAll(domain.String(), ".", "_"))
	path := filepath.Join(s.outputDir, base+"_raw_urls.txt")

	err := s.writeAtomic(path, func(w io.Writer) error {
		for _, record := range records {
			if _, err := fmt.Fprintln(w, string(record)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", &entity.PersistenceError{Format: FormatRaw, Path: path, Err: err}
	}

	s.logger.Info().Str("path", path).Int("records", len(records)).Msg("raw data saved")
	return path, nil
}

func (s *Sink) saveFormat(format, base string, domain entity.Domain, hostnames []entity.Hostname, extractedAt time.Time) (string, error) {
	switch format {
	case FormatTxt:
		path := filepath.Join(s.outputDir, base+"_subdomains.txt")
		return path, s.writeAtomic(path, func(w io.Writer) error {
			for _, hostname := range hostnames {
				if _, err := fmt.Fprintln(w, hostname.String()); err != nil {
					return err
				}
			}
			return nil
		})

	case FormatJSON:
		path := filepath.Join(s.outputDir, base+"_subdomains.json")
		return path, s.writeAtomic(path, func(w io.Writer) error {
			doc := document{
				Domain:         domain.String(),
				SubdomainCount: len(hostnames),
				ExtractionDate: extractedAt.Format(extractionDateLayout),
				Subdomains:     hostnames,
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		})

	case FormatCSV:
		path := filepath.Join(s.outputDir, base+"_subdomains.csv")
		return path, s.writeAtomic(path, func(w io.Writer) error {
			cw := csv.NewWriter(w)
			if err := cw.Write([]string{"index", "subdomain"}); err != nil {
				return err
			}
			for i, hostname := range hostnames {
				if err := cw.Write([]string{strconv.Itoa(i + 1), hostname.String()}); err != nil {
					return err
				}
			}
			cw.Flush()
			return cw.Error()
		})

	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}

// writeAtomic writes via temp-file-then-rename.
func (s *Sink) writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(s.outputDir, ".webarchive-*")
	if err != nil {
		return err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := write(tmp); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// sanitizeFilename strips characters that are unsafe in file names.
func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		return r
	}, name)
}
