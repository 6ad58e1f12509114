package repository

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidRemoteURI indicates a remote URI that cannot be parsed.
var ErrInvalidRemoteURI = errors.New("invalid remote URI")

// SanitizeRemoteURI normalizes a remote Git URI for use as a repository
// identity: credentials are stripped, the ".git" suffix and trailing
// slashes are removed. The result is a fixed point of this function.
//
//	https://user:pw@github.com/acme/widget.git -> https://github.com/acme/widget
func SanitizeRemoteURI(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidRemoteURI)
	}

	// scp-like syntax (git@host:org/repo.git) has no scheme; normalize to ssh.
	if !strings.Contains(trimmed, "://") {
		if at := strings.Index(trimmed, "@"); at > 0 && strings.Contains(trimmed[at:], ":") {
			rest := trimmed[at+1:]
			trimmed = "ssh://" + strings.Replace(rest, ":", "/", 1)
		} else {
			// Local paths are kept as-is, minus the .git suffix.
			return strings.TrimSuffix(strings.TrimRight(trimmed, "/"), ".git"), nil
		}
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidRemoteURI, raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host: %s", ErrInvalidRemoteURI, raw)
	}

	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimSuffix(strings.TrimRight(u.Path, "/"), ".git")

	return u.String(), nil
}
