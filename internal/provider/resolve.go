package provider

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrInvalidEndpoint is returned for a storage or public endpoint that is
	// not an absolute URL.
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	// ErrInvalidURL is returned when the storage client reports an object URL
	// that cannot be parsed.
	ErrInvalidURL = errors.New("invalid object url")
)

// Resolver rewrites object URLs reported by the storage client so they point
// at the public endpoint. The reported URL is first resolved against the
// internal API endpoint; its path, query and fragment are then re-resolved
// against the public endpoint. Without a public endpoint the internal one is
// used for both steps, which leaves absolute URLs unchanged.
type Resolver struct {
	internal *url.URL
	public   *url.URL
}

// NewResolver parses the endpoints. publicURL may be empty.
func NewResolver(apiURL, publicURL string) (*Resolver, error) {
	internal, err := parseEndpoint(apiURL)
	if err != nil {
		return nil, err
	}

	public := internal
	if publicURL != "" {
		if public, err = parseEndpoint(publicURL); err != nil {
			return nil, err
		}
	}

	return &Resolver{internal: internal, public: public}, nil
}

// Resolve returns the absolute public URL for reported.
func (r *Resolver) Resolve(reported string) (string, error) {
	if strings.TrimSpace(reported) == "" {
		return "", fmt.Errorf("%w: empty url", ErrInvalidURL)
	}
	ref, err := url.Parse(reported)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	abs := r.internal.ResolveReference(ref)
	rest := &url.URL{
		Path:        abs.Path,
		RawPath:     abs.RawPath,
		RawQuery:    abs.RawQuery,
		Fragment:    abs.Fragment,
		RawFragment: abs.RawFragment,
	}
	return r.public.ResolveReference(rest).String(), nil
}

func parseEndpoint(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute url", ErrInvalidEndpoint, raw)
	}
	return u, nil
}
