/*
Copyright © 2024 Alexandre Pires

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package metadata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/yomguy/servestream-sub001/pkg/logger"
	"github.com/yomguy/servestream-sub001/pkg/metrics"
	"github.com/yomguy/servestream-sub001/pkg/streamdb"
	"github.com/yomguy/servestream-sub001/pkg/transport"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var ErrNoTags = errors.New("no metadata found")

// Fetcher reads the first bytes of a media URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string, limit int64) ([]byte, error)
}

type registryFetcher struct {
	registry *transport.Registry
}

// NewRegistryFetcher fetches through the transports of registry.
func NewRegistryFetcher(registry *transport.Registry) Fetcher {
	return &registryFetcher{registry: registry}
}

func (f *registryFetcher) Fetch(ctx context.Context, uri string, limit int64) ([]byte, error) {
	t, u, err := f.registry.Parse(uri)
	if err != nil {
		return nil, err
	}
	conn, err := t.Connect(ctx, u)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	data, err := io.ReadAll(io.LimitReader(conn, limit))
	if err != nil && len(data) > 0 {
		// Tags sit at the head of the file, what arrived may be enough.
		logger.WithFields(logger.Fields{"uri": transport.Scrub(u).String()}).Debugf("Keeping %d bytes after read error: %v", len(data), err)
		return data, nil
	}
	return data, err
}

type Options struct {
	Interval      time.Duration // Minimum delay between two fetches.
	Burst         int
	Workers       int
	MaxProbeBytes int64
}

func DefaultOptions() Options {
	return Options{
		Interval:      500 * time.Millisecond,
		Burst:         1,
		Workers:       2,
		MaxProbeBytes: 512 << 10,
	}
}

// Result counts the outcome of a batch.
type Result struct {
	Updated int `json:"updated"`
	Empty   int `json:"empty"`
	Failed  int `json:"failed"`
}

// Enricher reads tags from media files and stores them on their rows.
type Enricher struct {
	store    *streamdb.Store
	fetcher  Fetcher
	metrics  *metrics.Metrics
	limiter  *rate.Limiter
	workers  int
	maxProbe int64
}

func New(store *streamdb.Store, fetcher Fetcher, m *metrics.Metrics, opts Options) *Enricher {
	defaults := DefaultOptions()
	if opts.Burst <= 0 {
		opts.Burst = defaults.Burst
	}
	if opts.Workers <= 0 {
		opts.Workers = defaults.Workers
	}
	if opts.MaxProbeBytes <= 0 {
		opts.MaxProbeBytes = defaults.MaxProbeBytes
	}
	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}
	return &Enricher{
		store:    store,
		fetcher:  fetcher,
		metrics:  m,
		limiter:  rate.NewLimiter(limit, opts.Burst),
		workers:  opts.Workers,
		maxProbe: opts.MaxProbeBytes,
	}
}

// Read extracts title, artist, album and duration from the head of a media
// file.
func Read(data []byte) (streamdb.Metadata, error) {
	m, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return streamdb.Metadata{}, err
	}
	md := streamdb.Metadata{
		Title:    strings.TrimSpace(m.Title()),
		Artist:   strings.TrimSpace(m.Artist()),
		Album:    strings.TrimSpace(m.Album()),
		Duration: duration(m.Raw()),
	}
	if md.Empty() {
		return md, ErrNoTags
	}
	return md, nil
}

// duration reads the ID3 length frame, given in milliseconds, as seconds.
func duration(raw map[string]interface{}) int64 {
	for _, key := range []string{"TLEN", "TLE"} {
		v, ok := raw[key].(string)
		if !ok {
			continue
		}
		ms, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err == nil && ms > 0 {
			return ms / 1000
		}
	}
	return 0
}

type probe struct {
	media streamdb.MediaFile
	data  []byte
	err   error
}

// Run enriches the media rows with the given ids one after the other.
// Failures of one item are logged and skipped; only a cancelled ctx stops
// the batch early.
func (e *Enricher) Run(ctx context.Context, ids []int64) (Result, error) {
	files, err := e.store.MediaByIDs(ctx, ids)
	if err != nil {
		return Result{}, err
	}
	var res Result
	for _, file := range files {
		if err := e.limiter.Wait(ctx); err != nil {
			return res, err
		}
		data, err := e.fetch(ctx, file)
		if err := ctx.Err(); err != nil {
			return res, err
		}
		e.apply(ctx, &res, probe{media: file, data: data, err: err})
	}
	return res, nil
}

// RunAll enriches every stored media row. Fetches run on a bounded pool;
// results are written by a single goroutine.
func (e *Enricher) RunAll(ctx context.Context) (Result, error) {
	files, err := e.store.ListMedia(ctx)
	if err != nil {
		return Result{}, err
	}

	probes := make(chan probe)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	var res Result
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range probes {
			e.apply(ctx, &res, p)
		}
	}()

	for _, file := range files {
		if gctx.Err() != nil {
			break
		}
		file := file
		g.Go(func() error {
			if err := e.limiter.Wait(gctx); err != nil {
				return err
			}
			data, err := e.fetch(gctx, file)
			select {
			case probes <- probe{media: file, data: data, err: err}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	err = g.Wait()
	close(probes)
	<-done

	if err == nil {
		err = ctx.Err()
	}
	return res, err
}

// fetch reads the head of file. Rows are stored without credentials, so
// those of the owning stream are put back for URIs on its host.
func (e *Enricher) fetch(ctx context.Context, file streamdb.MediaFile) ([]byte, error) {
	uri := file.URI
	if file.StreamID != nil {
		rec, err := e.store.Find(ctx, *file.StreamID)
		switch {
		case err == nil:
			uri = transport.WithCredentials(uri, rec)
		case !errors.Is(err, streamdb.ErrNotFound):
			return nil, err
		}
	}
	return e.fetcher.Fetch(ctx, uri, e.maxProbe)
}

func (e *Enricher) apply(ctx context.Context, res *Result, p probe) {
	log := logger.WithFields(logger.Fields{"media": p.media.ID})
	if p.err != nil {
		log.Warnf("Failed to fetch media: %v", p.err)
		res.Failed++
		e.metrics.RecordEnrichment("failed")
		return
	}

	md, err := Read(p.data)
	if err != nil {
		log.Debugf("No metadata: %v", err)
		res.Empty++
		e.metrics.RecordEnrichment("empty")
		return
	}

	if err := e.store.UpdateMediaMetadata(ctx, p.media.ID, md); err != nil {
		log.Errorf("Failed to save metadata: %v", err)
		res.Failed++
		e.metrics.RecordEnrichment("failed")
		return
	}
	log.Debugf("Updated metadata: %s", describe(md))
	res.Updated++
	e.metrics.RecordEnrichment("updated")
}

func describe(md streamdb.Metadata) string {
	return fmt.Sprintf("%q by %q on %q", md.Title, md.Artist, md.Album)
}
