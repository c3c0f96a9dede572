package thirdparty

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const maxScriptBytes = 4 << 20

var ErrCapabilityMissing = errors.New("expected capability missing from script")

// FetchScript downloads a vendor script and checks that it exposes
// capability. It is the server-side equivalent of waiting for the script's
// onload and then probing the global it defines.
func FetchScript(ctx context.Context, client *http.Client, url, capability string) error {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build script request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to load script %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to load script %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScriptBytes))
	if err != nil {
		return fmt.Errorf("failed to read script %s: %w", url, err)
	}

	if capability != "" && !bytes.Contains(body, []byte(capability)) {
		return fmt.Errorf("%w: %s", ErrCapabilityMissing, capability)
	}
	return nil
}
