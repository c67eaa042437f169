package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/matzehuels/donut/pkg/cache"
	"github.com/matzehuels/donut/pkg/dataview"
	"github.com/matzehuels/donut/pkg/errors"
	"github.com/matzehuels/donut/pkg/observability"
)

// maxDatasetBytes bounds a remote dataset download.
const maxDatasetBytes = 32 << 20

// LoadDataset returns the dataset named by opts, along with its content
// hash and whether a remote download came from the cache.
func (r *Runner) LoadDataset(ctx context.Context, opts Options) (*dataview.Result, string, bool, error) {
	start := time.Now()
	source := opts.Input
	if source == "" {
		source = "memory"
	}
	observability.Pipeline().OnLoadStart(ctx, source)

	res, hit, err := r.loadDataset(ctx, opts)
	categories := 0
	if res != nil && res.Category != nil {
		categories = len(res.Category.Members)
	}
	observability.Pipeline().OnLoadComplete(ctx, source, categories, time.Since(start), err)
	if err != nil {
		return nil, "", false, err
	}

	data, err := dataview.MarshalJSON(res)
	if err != nil {
		return nil, "", false, fmt.Errorf("hash dataset: %w", err)
	}
	return res, cache.Hash(data), hit, nil
}

func (r *Runner) loadDataset(ctx context.Context, opts Options) (*dataview.Result, bool, error) {
	switch {
	case opts.Dataset != nil:
		if err := opts.Dataset.CheckShape(); err != nil {
			return nil, false, err
		}
		return opts.Dataset, false, nil
	case isRemote(opts.Input):
		data, hit, err := r.fetch(ctx, opts.Input, opts.NoCache)
		if err != nil {
			return nil, false, err
		}
		u, _ := url.Parse(opts.Input)
		res, err := dataview.Decode(bytes.NewReader(data), dataview.FormatOf(path.Base(u.Path)))
		return res, hit, err
	default:
		res, err := dataview.Import(opts.Input)
		return res, false, err
	}
}

// fetch downloads a dataset, retrying transport failures and 5xx responses.
func (r *Runner) fetch(ctx context.Context, rawURL string, noCache bool) ([]byte, bool, error) {
	if err := errors.ValidateURL(rawURL); err != nil {
		return nil, false, err
	}
	key := r.Keyer.DatasetKey(rawURL)
	if !noCache {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "dataset")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "dataset")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", rawURL)
	}

	var data []byte
	err = cache.RetryWithBackoff(ctx, func() error {
		var err error
		data, err = r.get(ctx, u)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if !noCache {
		if err := r.Cache.Set(ctx, key, data, cache.TTLDataset); err == nil {
			observability.Cache().OnCacheSet(ctx, "dataset", len(data))
		}
	}
	return data, false, nil
}

func (r *Runner) get(ctx context.Context, u *url.URL) ([]byte, error) {
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodGet, u.Host, u.Path)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, application/toml;q=0.9, */*;q=0.5")

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, u.Host, u.Path, err)
		return nil, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, http.MethodGet, u.Host, u.Path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.Wrap(errors.ErrCodeNotFound, cache.ErrNotFound, "dataset %s", u)
	case resp.StatusCode >= 500:
		return nil, cache.Retryable(fmt.Errorf("%w: %s returned %d", cache.ErrNetwork, u.Host, resp.StatusCode))
	case resp.StatusCode >= 400:
		return nil, errors.New(errors.ErrCodeInvalidInput, "fetch %s: status %d", u, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDatasetBytes+1))
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	if len(data) > maxDatasetBytes {
		return nil, errors.New(errors.ErrCodeInvalidDataset, "dataset %s exceeds %d bytes", u, maxDatasetBytes)
	}
	return data, nil
}
