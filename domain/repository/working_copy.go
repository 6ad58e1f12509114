package repository

// WorkingCopy represents a local filesystem clone of a Git repository.
type WorkingCopy struct {
	path string
}

// NewWorkingCopy creates a new WorkingCopy.
func NewWorkingCopy(path string) WorkingCopy {
	return WorkingCopy{path: path}
}

// Path returns the local filesystem path.
func (w WorkingCopy) Path() string { return w.path }

// IsEmpty returns true if no path is set.
func (w WorkingCopy) IsEmpty() bool { return w.path == "" }
