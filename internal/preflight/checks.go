package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"reelsmith/internal/config"
	"reelsmith/internal/deps"
	"reelsmith/internal/stock/pexels"
)

const pexelsCheckTimeout = 5 * time.Second

// CheckPexels verifies Pexels connectivity and authentication with a single
// one-result photo search.
func CheckPexels(ctx context.Context, baseURL, apiKey string) Result {
	const name = "Pexels"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = pexels.DefaultBaseURL
	}
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "missing api key", Optional: true}
	}

	checkCtx, cancel := context.WithTimeout(ctx, pexelsCheckTimeout)
	defer cancel()

	client := &http.Client{Timeout: pexelsCheckTimeout}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/v1/search?query=nature&per_page=1", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%v)", err), Optional: true}
	}
	req.Header.Set("Authorization", strings.TrimSpace(apiKey))

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeHTTPError(err), Optional: true}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable", Optional: true}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid api key)", Optional: true}
	case http.StatusTooManyRequests:
		return Result{Name: name, Detail: "rate limited", Optional: true}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%d)", resp.StatusCode), Optional: true}
	}
}

// CheckPexelsFromConfig evaluates Pexels status from config and connectivity.
// Without a key the stock rungs are skipped, which is reported as passing.
func CheckPexelsFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Pexels"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown", Optional: true}
	}
	if strings.TrimSpace(cfg.Pexels.APIKey) == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled (no api key, generated backgrounds only)", Optional: true}
	}
	return CheckPexels(ctx, cfg.Pexels.BaseURL, cfg.Pexels.APIKey)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries configured for productions.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.MediaRequirements(
		cfg.Speech.Binary,
		cfg.Engine.FFmpegBinary,
		cfg.Engine.FFprobeBinary,
	))
}

func summarizeHTTPError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (Pexels API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (Pexels API unreachable)"
	}
	return fmt.Sprintf("request failed (%v)", err)
}
