package extract_test

import (
	"reflect"
	"sort"
	"testing"

	"webarchive/pkg/domain/entity"
	"webarchive/pkg/extract"

	"github.com/rs/zerolog"
)

func records(lines ...string) []entity.ArchiveRecord {
	rs := make([]entity.ArchiveRecord, len(lines))
	for i, line := range lines {
		rs[i] = entity.ArchiveRecord(line)
	}
	return rs
}

func hostnames(hs []entity.Hostname) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.String()
	}
	return out
}

func TestExtract(t *testing.T) {
	e := extract.NewExtractor(zerolog.Nop())

	res := e.Extract("example.com", records(
		"https://sub1.example.com/page",
		"http://sub1.example.com:8080/x",
		"not a url",
		"https://sub2.example.com/",
	))

	want := []string{"sub1.example.com", "sub2.example.com"}
	if !reflect.DeepEqual(hostnames(res.Hostnames), want) {
		t.Errorf("Extract = %v, want %v", res.Hostnames, want)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
}

func TestExtractCaseFoldAndSort(t *testing.T) {
	e := extract.NewExtractor(zerolog.Nop())

	res := e.Extract("example.com", records(
		"https://ZZZ.example.com/",
		"https://API.Example.Com/v1",
		"https://api.example.com/v2",
		"https://mail.example.com/",
	))

	got := hostnames(res.Hostnames)
	want := []string{"api.example.com", "mail.example.com", "zzz.example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
	if !sort.StringsAreSorted(got) {
		t.Errorf("output not sorted: %v", got)
	}
}

func TestExtractNoDuplicatesNoDotlessEntries(t *testing.T) {
	e := extract.NewUnscopedExtractor(zerolog.Nop())

	res := e.Extract("example.com", records(
		"https://a.example.com/1",
		"https://a.example.com/2",
		"http://localhost/etc",
		"://broken",
		"",
		"https://b.example.com/",
	))

	seen := make(map[entity.Hostname]bool)
	for _, h := range res.Hostnames {
		if seen[h] {
			t.Errorf("duplicate entry %q", h)
		}
		seen[h] = true
	}
	for _, h := range res.Hostnames {
		found := false
		for _, r := range h {
			if r == '.' {
				found = true
			}
		}
		if !found {
			t.Errorf("entry without dot: %q", h)
		}
	}
	want := []string{"a.example.com", "b.example.com"}
	if !reflect.DeepEqual(hostnames(res.Hostnames), want) {
		t.Errorf("Extract = %v, want %v", res.Hostnames, want)
	}
}

func TestExtractScope(t *testing.T) {
	e := extract.NewExtractor(zerolog.Nop())

	res := e.Extract("example.com", records(
		"https://www.example.com/",
		"https://example.com/",
		"https://cdn.other.org/asset.js",
		"https://evil-example.com/",
	))

	want := []string{"example.com", "www.example.com"}
	if !reflect.DeepEqual(hostnames(res.Hostnames), want) {
		t.Errorf("Extract = %v, want %v", res.Hostnames, want)
	}
	if res.OutOfScope != 2 {
		t.Errorf("OutOfScope = %d, want 2", res.OutOfScope)
	}
}

func TestExtractUnscopedKeepsForeignHostnames(t *testing.T) {
	e := extract.NewUnscopedExtractor(zerolog.Nop())

	res := e.Extract("example.com", records(
		"https://www.example.com/",
		"https://cdn.other.org/asset.js",
	))

	want := []string{"cdn.other.org", "www.example.com"}
	if !reflect.DeepEqual(hostnames(res.Hostnames), want) {
		t.Errorf("Extract = %v, want %v", res.Hostnames, want)
	}
	if res.OutOfScope != 0 {
		t.Errorf("OutOfScope = %d, want 0", res.OutOfScope)
	}
}

func TestExtractEmptyInput(t *testing.T) {
	e := extract.NewExtractor(zerolog.Nop())
	res := e.Extract("example.com", nil)
	if len(res.Hostnames) != 0 || res.Skipped != 0 {
		t.Errorf("Extract(nil) = %+v, want empty result", res)
	}
}
