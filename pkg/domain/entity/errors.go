package entity

import "fmt"

// InvalidDomainError reports a malformed input domain. It is fatal and
// never retried.
type InvalidDomainError struct {
	Input string
}

func (e *InvalidDomainError) Error() string {
	return fmt.Sprintf("invalid domain format: %q", e.Input)
}

// FetchError reports that the archive API could not be queried after
// exhausting the retry budget.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PersistenceError reports that a single output format failed to write.
// Remaining formats are still attempted.
type PersistenceError struct {
	Format string
	Path   string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("saving %s to %s: %v", e.Format, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
