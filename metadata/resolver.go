package metadata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
)

// Kind tells a client whether the resolved image value is a fetchable URL
// or a self-contained data URI.
type Kind string

const (
	KindURL  Kind = "url"
	KindData Kind = "data"
)

// maxDocumentSize caps how much of a metadata document we read; anything
// larger is treated as a fetch failure.
const maxDocumentSize = 1 << 20

type document struct {
	Image string `json:"image"`
}

// Resolver turns token URIs into image references. Every failure mode is
// silent: the worst outcome of resolution is an event without an image.
type Resolver struct {
	client  *http.Client
	gateway string
	timeout time.Duration
	logger  *slog.Logger
}

// NewResolver builds a resolver that rewrites ipfs:// URIs through the
// given HTTP gateway host and bounds every remote fetch by timeout.
func NewResolver(gateway string, timeout time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{
		client:  &http.Client{Timeout: timeout},
		gateway: gateway,
		timeout: timeout,
		logger:  logger,
	}
}

func (r *Resolver) Timeout() time.Duration {
	return r.timeout
}

// ResolveImage normalizes tokenURI by scheme and, for remote schemes,
// fetches the referenced metadata document and extracts its image field.
//
//	http/https  -> fetched, Kind url
//	ipfs        -> rewritten to the gateway, fetched, Kind url
//	data        -> returned unchanged, Kind data, no network access
//	anything else -> no enrichment
func (r *Resolver) ResolveImage(ctx context.Context, tokenURI string) (string, Kind, bool) {
	parsed, err := url.Parse(tokenURI)
	if err != nil {
		r.logger.Debug("unparseable token uri", "uri", tokenURI, "error", err)
		return "", "", false
	}

	switch parsed.Scheme {
	case "http", "https":
		image, err := r.fetchImage(ctx, tokenURI)
		if err != nil {
			r.logger.Debug("metadata fetch failed", "uri", tokenURI, "error", err)
			return "", "", false
		}
		return image, KindURL, true
	case "ipfs":
		gatewayURL := ipfsGatewayURL(r.gateway, parsed)
		image, err := r.fetchImage(ctx, gatewayURL)
		if err != nil {
			r.logger.Debug("metadata fetch failed", "uri", tokenURI, "gateway_url", gatewayURL, "error", err)
			return "", "", false
		}
		return image, KindURL, true
	case "data":
		return tokenURI, KindData, true
	default:
		return "", "", false
	}
}

// ipfsGatewayURL rewrites a content-addressed URI to a fetchable HTTP
// gateway URL. ipfs://CID/path parses with the CID as host, so host and
// path are stitched back together under the gateway.
func ipfsGatewayURL(gateway string, parsed *url.URL) string {
	return fmt.Sprintf("https://%s/ipfs/%s%s", gateway, parsed.Host, parsed.Path)
}

func (r *Resolver) fetchImage(ctx context.Context, fetchURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	doc := document{}
	if err = json.NewDecoder(io.LimitReader(resp.Body, maxDocumentSize)).Decode(&doc); err != nil {
		return "", fmt.Errorf("decoding metadata document: %w", err)
	}
	if doc.Image == "" {
		return "", fmt.Errorf("metadata document has no image field")
	}
	return doc.Image, nil
}
