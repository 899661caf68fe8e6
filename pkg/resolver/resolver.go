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
package resolver

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/yomguy/servestream-sub001/pkg/browse"
	"github.com/yomguy/servestream-sub001/pkg/logger"
	"github.com/yomguy/servestream-sub001/pkg/metrics"
	"github.com/yomguy/servestream-sub001/pkg/playlist"
	"github.com/yomguy/servestream-sub001/pkg/streamdb"
	"github.com/yomguy/servestream-sub001/pkg/transport"
)

type Action string

const (
	ActionUndetermined Action = "undetermined"
	ActionBrowse       Action = "browse"
	ActionPlay         Action = "play"
)

// Outcome is the classification of a resolved URI. It never carries
// credentials outside Stream.
type Outcome struct {
	Action      Action                 `json:"action"`
	URI         string                 `json:"uri,omitempty"`
	ContentType string                 `json:"content_type,omitempty"`
	Stream      *streamdb.StreamRecord `json:"stream,omitempty"`
	Created     bool                   `json:"created,omitempty"`
	MediaIDs    []int64                `json:"media_ids,omitempty"`
	Links       []browse.Link          `json:"links,omitempty"`
	Reason      string                 `json:"reason,omitempty"`
}

type Options struct {
	CacheTTL        time.Duration
	MaxPlaylistSize int64
}

type Resolver struct {
	store    *streamdb.Store
	registry *transport.Registry
	metrics  *metrics.Metrics
	types    *cache.Cache
	maxSize  int64
	now      func() time.Time
}

func New(store *streamdb.Store, registry *transport.Registry, m *metrics.Metrics, opts Options) *Resolver {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.MaxPlaylistSize <= 0 {
		opts.MaxPlaylistSize = playlist.DefaultMaxSize
	}
	return &Resolver{
		store:    store,
		registry: registry,
		metrics:  m,
		types:    cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		maxSize:  opts.MaxPlaylistSize,
		now:      time.Now,
	}
}

// Resolve classifies input as something to browse or to play. Every
// failure is reported as an undetermined outcome.
func (r *Resolver) Resolve(ctx context.Context, input string) Outcome {
	start := r.now()
	out := r.resolve(ctx, input)
	r.metrics.RecordResolution(string(out.Action), r.now().Sub(start).Seconds())
	return out
}

func undetermined(reason string) Outcome {
	return Outcome{Action: ActionUndetermined, Reason: reason}
}

func (r *Resolver) resolve(ctx context.Context, input string) Outcome {
	t, u, err := r.registry.Parse(input)
	if err != nil {
		logger.Warnf("Unable to resolve URI: %v", err)
		return undetermined(err.Error())
	}
	scrubbed := transport.Scrub(u).String()
	log := logger.WithFields(logger.Fields{"uri": scrubbed, "scheme": t.Scheme()})

	rec, created, err := r.store.FindOrCreate(ctx, t.SelectionArgs(u), func() *streamdb.StreamRecord {
		return t.NewStreamRecord(u)
	})
	if err != nil {
		log.Errorf("Failed to store stream: %v", err)
		return withReason(Outcome{URI: scrubbed}, ActionUndetermined, err.Error())
	}
	if created {
		log.WithField("id", rec.ID).Info("Added new stream")
	}
	out := Outcome{URI: scrubbed, Stream: rec, Created: created}

	if err := r.store.Touch(ctx, rec.ID, r.now()); err != nil {
		log.Warnf("Failed to update last connection: %v", err)
	}

	if ct, found := r.types.Get(scrubbed); found {
		if contentType := ct.(string); isPlainMedia(scrubbed, contentType) {
			log.Debugf("Using cached content type %s", contentType)
			return r.play(ctx, out, contentType, playlist.Single(scrubbed))
		}
	}

	if err := ctx.Err(); err != nil {
		return withReason(out, ActionUndetermined, err.Error())
	}
	conn, err := t.Connect(ctx, u)
	if err != nil {
		log.Warnf("Failed to connect: %v", err)
		return withReason(out, ActionUndetermined, err.Error())
	}
	defer conn.Close()

	contentType, ok := conn.ContentType()
	if !ok {
		log.Warn("Unable to determine content type")
		return withReason(out, ActionUndetermined, "unknown content type")
	}
	r.rememberType(ctx, rec, scrubbed, contentType)
	out.ContentType = contentType

	if strings.Contains(contentType, transport.MimeTypeHTML) {
		links, err := browse.Parse(transport.Scrub(u), io.LimitReader(conn, r.maxSize))
		if err != nil {
			log.Warnf("Failed to read page: %v", err)
		}
		out.Action = ActionBrowse
		out.Links = links
		return out
	}

	if err := ctx.Err(); err != nil {
		return withReason(out, ActionUndetermined, err.Error())
	}
	entries := playlist.Single(scrubbed)
	if t.IsPotentialPlaylist() {
		entries = playlist.Expand(scrubbed, contentType, conn, r.maxSize)
	}
	return r.play(ctx, out, contentType, entries)
}

func (r *Resolver) play(ctx context.Context, out Outcome, contentType string, entries []playlist.Entry) Outcome {
	out.ContentType = contentType
	files := make([]streamdb.MediaFile, 0, len(entries))
	for _, e := range entries {
		files = append(files, streamdb.MediaFile{
			URI:      scrubURI(e.URI),
			Title:    streamdb.NullString(e.Title),
			Track:    e.Track,
			Duration: e.Duration,
		})
	}

	var streamID *int64
	if out.Stream != nil {
		streamID = &out.Stream.ID
	}
	ids, err := r.store.UpsertMedia(ctx, streamID, files)
	if err != nil {
		logger.WithFields(logger.Fields{"uri": out.URI}).Errorf("Failed to store media entries: %v", err)
		return withReason(out, ActionUndetermined, err.Error())
	}
	r.metrics.RecordMediaEntries(len(ids))

	out.Action = ActionPlay
	out.MediaIDs = ids
	return out
}

// scrubURI drops credentials written into a playlist entry. The enricher
// restores those of the owning stream when it fetches.
func scrubURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return transport.Scrub(u).String()
}

func (r *Resolver) rememberType(ctx context.Context, rec *streamdb.StreamRecord, key, contentType string) {
	r.types.SetDefault(key, contentType)
	if streamdb.Deref(rec.ContentType) == contentType {
		return
	}
	if err := r.store.SetContentType(ctx, rec.ID, contentType); err != nil {
		logger.Warnf("Failed to save content type: %v", err)
		return
	}
	rec.ContentType = streamdb.NullString(contentType)
}

// isPlainMedia reports whether a URI of a known type can be played without
// opening it again.
func isPlainMedia(uri, contentType string) bool {
	if contentType == "" || strings.Contains(contentType, transport.MimeTypeHTML) {
		return false
	}
	if _, err := playlist.Select(uri, contentType); err == nil {
		return false
	}
	return true
}

func withReason(out Outcome, action Action, reason string) Outcome {
	out.Action = action
	out.Reason = reason
	return out
}
