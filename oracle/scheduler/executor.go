package scheduler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"

	"github.com/VerisLabs/hurdleRateOracle/oracle/config"
	"github.com/VerisLabs/hurdleRateOracle/oracle/retry"
	"github.com/VerisLabs/hurdleRateOracle/oracle/types"
	rotypes "github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

var (
	once       sync.Once
	httpClient *http.Client
)

// executorClient returns the shared HTTP client used for source fetches.
func executorClient() *http.Client {
	once.Do(func() {
		httpClient = &http.Client{
			Timeout: config.FetchTimeout(),
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				MaxConnsPerHost:     20,
			},
		}
	})

	return httpClient
}

// Executor turns a job into a fulfillment payload. Every failure becomes an
// error payload so the request is always closed.
type Executor struct {
	client  *http.Client
	retry   *retry.Config
	breaker *retry.CircuitBreaker
}

func NewExecutor() *Executor {
	return &Executor{
		client:  executorClient(),
		retry:   retry.FetchConfig(config.FetchMaxAttempts(), config.FetchBaseDelay()),
		breaker: retry.NewCircuitBreaker(config.FetchMaxAttempts()*2, time.Minute),
	}
}

func (e *Executor) Execute(ctx context.Context, job types.Job) types.JobResult {
	bitmap, err := e.run(ctx, job)
	if err != nil {
		return types.JobResult{RequestID: job.RequestID, Err: []byte(err.Error())}
	}
	return types.JobResult{RequestID: job.RequestID, Response: rotypes.EncodeResponse(bitmap)}
}

func (e *Executor) run(ctx context.Context, job types.Job) (*uint256.Int, error) {
	src, err := types.ParseSource(job.Source)
	if err != nil {
		return nil, errors.Wrap(err, "invalid source")
	}

	var body []byte
	err = e.breaker.Execute(func() error {
		return retry.Do(ctx, e.retry, func() error {
			var fetchErr error
			body, fetchErr = e.fetchRawData(ctx, src.URL)
			return fetchErr
		}, retry.DefaultIsRetryable)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch source")
	}

	bitmap, err := extractBitmap(body, src)
	if err != nil {
		return nil, errors.Wrap(err, "failed to extract rates")
	}
	return bitmap, nil
}

// fetchRawData issues a GET and returns the body. 5xx answers are transient.
func (e *Executor) fetchRawData(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("User-Agent", "rateoracled/1.0")
	req.Header.Set("Accept", "application/json")

	res, err := e.client.Do(req)
	if err != nil {
		return nil, retry.Transient(err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if res.StatusCode >= 500 {
		return nil, retry.Transient(fmt.Errorf("unexpected HTTP status: %s", res.Status))
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected HTTP status: %s (%s)", res.Status, string(body))
	}

	return body, nil
}

func extractBitmap(body []byte, src types.Source) (*uint256.Int, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("response is not valid JSON")
	}

	switch src.Layout {
	case types.LayoutBitmap:
		res := gjson.GetBytes(body, src.Path)
		if !res.Exists() {
			return nil, fmt.Errorf("path %q not found", src.Path)
		}
		return rotypes.ParseBitmap(res.String())

	case types.LayoutSplit:
		upper, err := extractRate(body, src.Upper)
		if err != nil {
			return nil, err
		}
		lower, err := extractRate(body, src.Lower)
		if err != nil {
			return nil, err
		}
		return rotypes.PackSplit(upper, lower)

	case types.LayoutLanes:
		rates := make([]uint16, 0, len(src.Lanes))
		for _, path := range src.Lanes {
			rate, err := extractRate(body, path)
			if err != nil {
				return nil, err
			}
			rates = append(rates, rate)
		}
		return rotypes.PackRates(rates)

	default:
		return nil, fmt.Errorf("unknown layout: %s", src.Layout)
	}
}

// extractRate reads a basis point value; numbers and numeric strings are accepted.
func extractRate(body []byte, path string) (uint16, error) {
	res := gjson.GetBytes(body, path)
	if !res.Exists() {
		return 0, fmt.Errorf("path %q not found", path)
	}

	value, err := cast.ToUint64E(res.Value())
	if err != nil {
		return 0, fmt.Errorf("path %q: %w", path, err)
	}
	if value > rotypes.MaxRateBps {
		return 0, fmt.Errorf("path %q: rate %d exceeds %d", path, value, rotypes.MaxRateBps)
	}
	return uint16(value), nil
}
