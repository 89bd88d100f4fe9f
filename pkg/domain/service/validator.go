package service

import (
	"regexp"
	"strings"

	"webarchive/pkg/domain/entity"
)

// Validator checks candidate domains against the domain-name grammar:
// dot-separated labels of 1-63 alphanumeric-or-hyphen characters with no
// leading or trailing hyphen. Single-label inputs are accepted.
type Validator struct {
	pattern *regexp.Regexp
}

// NewValidator creates a domain validator.
func NewValidator() *Validator {
	return &Validator{
		pattern: regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`),
	}
}

// Validate returns the lowercase-normalized domain, or an
// *entity.InvalidDomainError when the grammar does not match. No I/O,
// deterministic, idempotent.
func (v *Validator) Validate(raw string) (entity.Domain, error) {
	if !v.pattern.MatchString(raw) {
		return "", &entity.InvalidDomainError{Input: raw}
	}
	return entity.Domain(strings.ToLower(raw)), nil
}
