package search

import "time"

// Filters narrows snippet search results. Zero values mean "no filter".
type Filters struct {
	language      string
	author        string
	createdAfter  time.Time
	createdBefore time.Time
	sourceRepo    string
	filePath      string
}

// FiltersOption is a functional option for Filters.
type FiltersOption func(*Filters)

// WithLanguage filters by source language.
func WithLanguage(language string) FiltersOption {
	return func(f *Filters) { f.language = language }
}

// WithAuthor filters by commit author name.
func WithAuthor(author string) FiltersOption {
	return func(f *Filters) { f.author = author }
}

// WithCreatedAfter keeps snippets created at or after t.
func WithCreatedAfter(t time.Time) FiltersOption {
	return func(f *Filters) { f.createdAfter = t }
}

// WithCreatedBefore keeps snippets created at or before t.
func WithCreatedBefore(t time.Time) FiltersOption {
	return func(f *Filters) { f.createdBefore = t }
}

// WithSourceRepo filters by a substring of the sanitized remote URI.
func WithSourceRepo(repo string) FiltersOption {
	return func(f *Filters) { f.sourceRepo = repo }
}

// WithFilePath filters by a substring of the source file path.
func WithFilePath(path string) FiltersOption {
	return func(f *Filters) { f.filePath = path }
}

// NewFilters creates Filters with options.
func NewFilters(opts ...FiltersOption) Filters {
	f := Filters{}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Language returns the language filter.
func (f Filters) Language() string { return f.language }

// Author returns the author filter.
func (f Filters) Author() string { return f.author }

// CreatedAfter returns the created-after filter.
func (f Filters) CreatedAfter() time.Time { return f.createdAfter }

// CreatedBefore returns the created-before filter.
func (f Filters) CreatedBefore() time.Time { return f.createdBefore }

// SourceRepo returns the source repository substring filter.
func (f Filters) SourceRepo() string { return f.sourceRepo }

// FilePath returns the file path substring filter.
func (f Filters) FilePath() string { return f.filePath }

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	return f.language == "" &&
		f.author == "" &&
		f.createdAfter.IsZero() &&
		f.createdBefore.IsZero() &&
		f.sourceRepo == "" &&
		f.filePath == ""
}
