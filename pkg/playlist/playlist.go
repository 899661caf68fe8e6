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
package playlist

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/elnormous/contenttype"
	"github.com/yomguy/servestream-sub001/pkg/logger"
	"github.com/yomguy/servestream-sub001/pkg/transport"
	"golang.org/x/text/encoding/charmap"
)

const DefaultMaxSize int64 = 1 << 20

var (
	ErrUnknownFormat = errors.New("unknown playlist format")
	ErrTooLarge      = errors.New("playlist exceeds size limit")
)

// Entry is one media reference of a playlist document.
type Entry struct {
	URI      string // The URI of the media.
	Title    string // The display title, if any.
	Track    int    // 1-based position in the document.
	Duration int64  // Seconds, -1 when unknown.
}

type Parser interface {
	Name() string
	Parse(r io.Reader) ([]Entry, error)
}

type format struct {
	parser     Parser
	extensions []string
	mediaTypes []contenttype.MediaType
}

var formats = []format{
	{
		parser:     M3UParser{},
		extensions: []string{"m3u"},
		mediaTypes: []contenttype.MediaType{
			contenttype.NewMediaType(transport.MimeTypeM3U),
			contenttype.NewMediaType("audio/mpegurl"),
			contenttype.NewMediaType("application/x-mpegurl"),
			contenttype.NewMediaType("application/vnd.apple.mpegurl"),
		},
	},
	{
		parser:     M3U8Parser{},
		extensions: []string{"m3u8"},
	},
	{
		parser:     PLSParser{},
		extensions: []string{"pls"},
		mediaTypes: []contenttype.MediaType{
			contenttype.NewMediaType(transport.MimeTypePLS),
			contenttype.NewMediaType("audio/scpls"),
			contenttype.NewMediaType("application/pls+xml"),
		},
	},
	{
		parser:     ASXParser{},
		extensions: []string{"asx", "wax", "wvx"},
		mediaTypes: []contenttype.MediaType{
			contenttype.NewMediaType(transport.MimeTypeASX),
			contenttype.NewMediaType("video/x-ms-asx"),
			contenttype.NewMediaType("audio/x-ms-wax"),
			contenttype.NewMediaType("video/x-ms-wvx"),
		},
	},
}

// ForContentType returns the parser declared for a MIME type.
func ForContentType(contentType string) (Parser, bool) {
	normalized := transport.NormalizeContentType(contentType)
	if normalized == "" || strings.Contains(normalized, "*") {
		return nil, false
	}
	ct := contenttype.NewMediaType(normalized)
	for _, f := range formats {
		if len(f.mediaTypes) > 0 && ct.MatchesAny(f.mediaTypes...) {
			return f.parser, true
		}
	}
	return nil, false
}

// ForExtension returns the parser for the extension of uri.
func ForExtension(uri string) (Parser, bool) {
	ext := transport.Extension(uri)
	if ext == "" {
		return nil, false
	}
	for _, f := range formats {
		for _, e := range f.extensions {
			if e == ext {
				return f.parser, true
			}
		}
	}
	return nil, false
}

// Select picks a parser by declared content type first, then by the
// extension of uri.
func Select(uri, contentType string) (Parser, error) {
	if p, ok := ForContentType(contentType); ok {
		return p, nil
	}
	if p, ok := ForExtension(uri); ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, contentType)
}

// Single is the one-entry list used when uri is not, or cannot be read as,
// a playlist.
func Single(uri string) []Entry {
	return []Entry{{URI: uri, Track: 1, Duration: -1}}
}

// Expand reads a playlist from r and returns its entries. Relative entry
// URIs are resolved against uri. Any failure, or a document without
// entries, yields Single(uri).
func Expand(uri, contentType string, r io.Reader, maxSize int64) []Entry {
	p, err := Select(uri, contentType)
	if err != nil {
		return Single(uri)
	}
	entries, err := parseLimited(p, r, maxSize)
	if err != nil {
		logger.Warnf("Failed to parse %s playlist: %v", p.Name(), err)
		return Single(uri)
	}
	if len(entries) == 0 {
		return Single(uri)
	}

	base, err := url.Parse(uri)
	if err != nil {
		base = nil
	}
	for i := range entries {
		entries[i].URI = resolve(base, entries[i].URI)
		entries[i].Track = i + 1
	}
	return entries
}

func parseLimited(p Parser, r io.Reader, maxSize int64) ([]Entry, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, ErrTooLarge
	}
	return p.Parse(bytes.NewReader(data))
}

func resolve(base *url.URL, ref string) string {
	if base == nil || !base.IsAbs() {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return base.ResolveReference(u).String()
}

func number(entries []Entry) []Entry {
	for i := range entries {
		entries[i].Track = i + 1
	}
	return entries
}

// decodeText returns data as UTF-8, treating input that is not valid UTF-8
// as Windows-1252.
func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func readText(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n"), nil
}
