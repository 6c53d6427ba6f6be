package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v4"
)

// maxImageBytes bounds how much image data an adapter will inline into a
// backend payload.
const maxImageBytes = 20 << 20

// materializeImage turns an image reference into a data URI. A data: URI is
// returned as-is; an HTTP URL is fetched (with exponential backoff for
// transient failures) and base64-encoded.
func materializeImage(ctx context.Context, client *http.Client, ref string) (string, error) {
	if strings.HasPrefix(ref, "data:") {
		return ref, nil
	}
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		return "", fmt.Errorf("unsupported image reference %q", ref)
	}

	var data []byte
	var contentType string

	fetch := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("image fetch: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("image fetch: status %d", resp.StatusCode))
		}

		data, err = io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
		if err != nil {
			return err
		}
		if len(data) > maxImageBytes {
			return backoff.Permanent(fmt.Errorf("image exceeds %d bytes", maxImageBytes))
		}
		contentType = resp.Header.Get("Content-Type")
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	if err := backoff.Retry(fetch, policy); err != nil {
		return "", fmt.Errorf("materialize image: %w", err)
	}

	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// splitDataURI splits a data URI into its media type and base64 payload,
// for backends that take the two separately.
func splitDataURI(uri string) (mediaType, data string, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", "", fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", fmt.Errorf("malformed data URI")
	}
	mediaType = strings.TrimSuffix(meta, ";base64")
	if mediaType == "" {
		mediaType = "image/jpeg"
	}
	return mediaType, payload, nil
}
