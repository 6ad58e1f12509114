package service

import "errors"

// ErrDuplicateRepository indicates a repository with the same sanitized
// remote URI is already tracked.
var ErrDuplicateRepository = errors.New("repository already exists")
