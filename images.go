package nlxd

import (
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// Images lists image fingerprints in the client's project.
//
// Only fingerprints are returned; use [Client.GetImage] for details. This
// costs one request per image but keeps each call simple.
func (c *Client) Images(ctx context.Context) ([]string, error) {
	urls, err := syncRequest[[]string](ctx, c, http.MethodGet, c.apiPath("images"), nil)
	if err != nil {
		return nil, err
	}
	return namesFromURLs(*urls)
}

// GetImage fetches an image by fingerprint.
func (c *Client) GetImage(ctx context.Context, fingerprint string) (*Image, error) {
	if fingerprint == "" {
		return nil, derive(ErrInvalidRequest, "image fingerprint is required", nil)
	}
	return syncRequest[Image](ctx, c, http.MethodGet, c.apiPath("images", url.PathEscape(fingerprint)), nil)
}

// namesFromURLs reduces resource URLs such as "/1.0/instances/web?project=x"
// to their unescaped last path element.
func namesFromURLs(urls []string) ([]string, error) {
	names := make([]string, 0, len(urls))
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil || !strings.HasPrefix(u.Path, "/") {
			return nil, derive(ErrSchemaMismatch, "invalid resource URL "+raw, err)
		}
		names = append(names, path.Base(u.Path))
	}
	return names, nil
}
