package filter_test

import (
	"reflect"
	"regexp"
	"testing"

	"webarchive/pkg/domain/entity"
	"webarchive/pkg/filter"

	"github.com/rs/zerolog"
)

func hs(names ...string) []entity.Hostname {
	out := make([]entity.Hostname, len(names))
	for i, n := range names {
		out[i] = entity.Hostname(n)
	}
	return out
}

func TestApplyIdentityWithoutSpec(t *testing.T) {
	input := hs("a.example.com", "b.example.com")

	for _, spec := range []*entity.FilterSpec{nil, {}} {
		e := filter.NewEngine(spec, zerolog.Nop())
		got := e.Apply(input)
		if !reflect.DeepEqual(got, input) {
			t.Errorf("Apply with empty spec = %v, want input unchanged", got)
		}
	}
}

func TestApplyMinLength(t *testing.T) {
	// Lengths are 13, 14 and 15, so the bound keeps only the last.
	e := filter.NewEngine(&entity.FilterSpec{MinLength: 15}, zerolog.Nop())

	got := e.Apply(hs("a.example.com", "bb.example.com", "ccc.example.com"))
	want := hs("ccc.example.com")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply = %v, want %v", got, want)
	}
}

func TestApplyMaxLength(t *testing.T) {
	e := filter.NewEngine(&entity.FilterSpec{MaxLength: 14}, zerolog.Nop())

	got := e.Apply(hs("a.example.com", "bb.example.com", "ccc.example.com"))
	want := hs("a.example.com", "bb.example.com")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply = %v, want %v", got, want)
	}
}

func TestApplyRegexSearchSemantics(t *testing.T) {
	// The pattern must be found anywhere in the hostname, not full-match.
	e := filter.NewEngine(&entity.FilterSpec{Regex: regexp.MustCompile(`test|dev`)}, zerolog.Nop())

	got := e.Apply(hs("test.example.com", "www.example.com", "api-dev.example.com"))
	want := hs("test.example.com", "api-dev.example.com")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply = %v, want %v", got, want)
	}
}

func TestApplyExcludeWords(t *testing.T) {
	e := filter.NewEngine(&entity.FilterSpec{ExcludeWords: []string{"admin", "staging"}}, zerolog.Nop())

	got := e.Apply(hs("admin.example.com", "www.example.com", "STAGING.example.com", "api.example.com"))
	want := hs("www.example.com", "api.example.com")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply = %v, want %v", got, want)
	}
}

func TestApplyConjunction(t *testing.T) {
	e := filter.NewEngine(&entity.FilterSpec{
		Regex:        regexp.MustCompile(`example`),
		MinLength:    5,
		MaxLength:    40,
		ExcludeWords: []string{"mail"},
	}, zerolog.Nop())

	got := e.Apply(hs("www.example.com", "mail.example.com", "a.io"))
	want := hs("www.example.com")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply = %v, want %v", got, want)
	}
}

func TestApplyOrderPreserving(t *testing.T) {
	e := filter.NewEngine(&entity.FilterSpec{MinLength: 2}, zerolog.Nop())

	input := hs("z.example.com", "a.example.com", "m.example.com")
	got := e.Apply(input)
	if !reflect.DeepEqual(got, input) {
		t.Errorf("Apply changed order: %v, want %v", got, input)
	}
}
