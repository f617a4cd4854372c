// Package spectra handles spectrum references: the string values of
// spectrum-typed columns, which point at data files rather than holding data.
// A reference is either an absolute URL or an environment-anchored path of
// the form $VAR/relative/path. The toolkit validates and carries references;
// fetching the bytes behind one is the caller's Resolver.
package spectra

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/astrocatdb/astrocat/internal/db"
)

// Ref is a parsed spectrum reference. Raw preserves the exact stored string;
// serialization writes it back untouched.
type Ref struct {
	Raw string

	// URL is set for http(s) and ftp references.
	URL *url.URL

	// EnvVar and Path are set for $VAR/relative/path references.
	EnvVar string
	Path   string
}

// IsRemote returns true when the reference is a URL rather than a local path.
func (r Ref) IsRemote() bool {
	return r.URL != nil
}

// String returns the stored form of the reference.
func (r Ref) String() string {
	return r.Raw
}

// LocalPath expands an environment-anchored reference against the process
// environment.
func (r Ref) LocalPath() (string, error) {
	if r.IsRemote() {
		return "", fmt.Errorf("%w: %s is a remote reference", db.ErrConversion, r.Raw)
	}
	root := os.Getenv(r.EnvVar)
	if root == "" {
		return "", fmt.Errorf("%w: environment variable %s is not set", db.ErrConfiguration, r.EnvVar)
	}
	return filepath.Join(root, r.Path), nil
}

// Parse validates a spectrum reference string.
func Parse(raw string) (Ref, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Ref{}, fmt.Errorf("%w: empty spectrum reference", db.ErrConversion)
	}

	if strings.HasPrefix(s, "$") {
		rest := s[1:]
		envVar, path, found := strings.Cut(rest, "/")
		if !found || envVar == "" || path == "" {
			return Ref{}, fmt.Errorf("%w: malformed spectrum reference %q, want $VAR/relative/path", db.ErrConversion, raw)
		}
		return Ref{Raw: s, EnvVar: envVar, Path: path}, nil
	}

	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Ref{}, fmt.Errorf("%w: spectrum reference %q is neither a URL nor $VAR/path", db.ErrConversion, raw)
	}
	switch u.Scheme {
	case "http", "https", "ftp":
		return Ref{Raw: s, URL: u}, nil
	default:
		return Ref{}, fmt.Errorf("%w: unsupported spectrum URL scheme %q", db.ErrConversion, u.Scheme)
	}
}

// Resolver turns a reference into a location a reader can open, an absolute
// file path or a fetchable URL. Implementations decide transport; the engine
// only threads them through.
type Resolver interface {
	Resolve(ctx context.Context, ref Ref) (string, error)
}

// EnvResolver resolves environment-anchored references to absolute local
// paths and rejects remote ones.
type EnvResolver struct{}

// Resolve implements Resolver.
func (EnvResolver) Resolve(_ context.Context, ref Ref) (string, error) {
	return ref.LocalPath()
}
