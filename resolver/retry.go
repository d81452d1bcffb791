// seehuhn.de/go/svgfonts - embed fonts into SVG documents
// Copyright (C) 2025  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"time"
)

// RetryConfig configures retries for failed network requests.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the
	// first one.
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration

	// Multiplier is the factor by which the delay grows after each
	// retry.
	Multiplier float64

	// Jitter adds randomness to the delays; 0.1 means up to ±10%.
	Jitter float64
}

// DefaultRetryConfig returns the retry configuration used when none
// is given: three attempts with exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

func (c RetryConfig) delay(attempt int) time.Duration {
	d := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt-1))
	if d > float64(c.MaxDelay) {
		d = float64(c.MaxDelay)
	}
	if c.Jitter > 0 {
		spread := d * c.Jitter
		d = d - spread + rand.Float64()*2*spread
	}
	return time.Duration(d)
}

// errPermanent marks failures which retrying cannot fix, such as
// HTTP 404 responses.
var errPermanent = errors.New("permanent failure")

// withRetry runs fn until it succeeds, fails permanently, or the
// attempt budget is exhausted.  Delays are taken from the resolver's
// clock so tests can control them.
func (r *Resolver) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, errPermanent) ||
			errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if attempt >= r.retry.MaxAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.clock.After(r.retry.delay(attempt)):
		}
	}
}

// maxFontSize bounds the size of downloaded font files.
const maxFontSize = 64 << 20

const userAgent = "svgfonts/1 (+https://seehuhn.de/go/svgfonts)"

// fetchURL downloads the given URL, retrying transient failures.
func (r *Resolver) fetchURL(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	err := r.withRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", errPermanent, err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := r.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			data, err = io.ReadAll(io.LimitReader(resp.Body, maxFontSize))
			return err
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return fmt.Errorf("%w: HTTP %d for %s", errPermanent, resp.StatusCode, url)
		default:
			return fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
		}
	})
	if err != nil {
		return nil, err
	}
	r.log.Debug("fetched", "url", url, "size", len(data))
	return data, nil
}

func readLocalFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
