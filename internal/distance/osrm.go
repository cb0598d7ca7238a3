package distance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"fieldroute/internal/model"
)

// OSRM queries an OSRM-compatible /table endpoint for a full duration and
// distance matrix. Requests are rate limited and retried on transient
// failures; the resulting matrix may be asymmetric.
type OSRM struct {
	baseURL string
	profile string
	client  *http.Client
	limiter *rate.Limiter
}

func NewOSRM(baseURL string) *OSRM {
	return &OSRM{
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: "driving",
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
}

type tableResponse struct {
	Code      string       `json:"code"`
	Durations [][]*float64 `json:"durations"`
	Distances [][]*float64 `json:"distances"`
}

func (o *OSRM) Matrix(ctx context.Context, points []model.GeoPoint) (*Matrix, error) {
	m := newMatrix(len(points))
	for i, p := range points {
		if p.IsZero() {
			m.Degraded = append(m.Degraded, i)
		}
	}
	if len(points) < 2 {
		return m, nil
	}

	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = strconv.FormatFloat(p.Lng, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lat, 'f', 6, 64)
	}
	url := fmt.Sprintf("%s/table/v1/%s/%s?annotations=duration,distance", o.baseURL, o.profile, strings.Join(coords, ";"))

	resp, err := o.getWithRetry(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("osrm table: %w", err)
	}
	defer resp.Body.Close()

	var tr tableResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("osrm table: decode response: %w", err)
	}
	if tr.Code != "Ok" {
		return nil, fmt.Errorf("osrm table: server code %q", tr.Code)
	}
	if len(tr.Durations) != len(points) || len(tr.Distances) != len(points) {
		return nil, fmt.Errorf("osrm table: got %d duration rows for %d points", len(tr.Durations), len(points))
	}

	degraded := map[int]bool{}
	for _, i := range m.Degraded {
		degraded[i] = true
	}
	for i := range points {
		if len(tr.Durations[i]) != len(points) || len(tr.Distances[i]) != len(points) {
			return nil, fmt.Errorf("osrm table: ragged row %d", i)
		}
		for j := range points {
			if i == j || degraded[i] || degraded[j] {
				continue
			}
			dur := tr.Durations[i][j]
			dist := tr.Distances[i][j]
			if dur == nil || dist == nil {
				return nil, fmt.Errorf("osrm table: unreachable pair %d->%d", i, j)
			}
			m.Minutes[i][j] = int(*dur / 60)
			m.Meters[i][j] = int(*dist)
		}
	}
	return m, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// getWithRetry retries transient failures (network errors, 429/5xx) with
// exponential backoff, respecting context cancellation and the rate limiter.
func (o *OSRM) getWithRetry(ctx context.Context, url string) (*http.Response, error) {
	const maxAttempts = 4
	backoff := 200 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := o.client.Do(req)
		if err == nil && resp.StatusCode < 400 {
			return resp, nil
		}
		if err == nil {
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			err = &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case 429, 500, 502, 503, 504:
				retry = true
			}
		}
		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}
		if !retry || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
	return nil, lastErr
}
