package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"vigilance-service/internal/pkg/datauri"
	"vigilance-service/internal/pkg/retry"
)

const maxImageBytes = 20 << 20

var ErrUnsupportedSource = errors.New("unsupported image source")

// ImageLoader returns the raw bytes behind a photo, signature or logo source.
type ImageLoader interface {
	Load(ctx context.Context, source string) ([]byte, error)
}

// HTTPLoader decodes data URIs in place and fetches http(s) URLs with bounded retries.
type HTTPLoader struct {
	client *http.Client
	policy retry.Policy
}

func NewHTTPLoader(timeout time.Duration, policy retry.Policy) *HTTPLoader {
	return &HTTPLoader{
		client: &http.Client{Timeout: timeout},
		policy: policy,
	}
}

func (l *HTTPLoader) Load(ctx context.Context, source string) ([]byte, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: empty", ErrUnsupportedSource)
	}
	if datauri.IsDataURI(source) {
		_, data, err := datauri.Decode(source)
		return data, err
	}

	u, err := url.Parse(source)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %.40q", ErrUnsupportedSource, source)
	}

	var body []byte
	err = retry.Do(ctx, l.policy, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return retry.Permanent(err)
		}

		resp, err := l.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			err := fmt.Errorf("fetch %s: status %d", u.Redacted(), resp.StatusCode)
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return retry.Permanent(err)
			}
			return err
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
		if err != nil {
			return err
		}
		if len(body) > maxImageBytes {
			return retry.Permanent(fmt.Errorf("fetch %s: image larger than %d bytes", u.Redacted(), maxImageBytes))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
