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
	"errors"
	"io"
	"strconv"
	"strings"
)

type m3uTag struct {
	Tag   string
	Value string
}

// parseTag parses a line that starts with '#' and extracts the tag name and value.
func parseTag(line string) (m3uTag, error) {
	line = strings.TrimPrefix(line, "#")
	parts := strings.SplitN(line, ":", 2)
	if len(parts[0]) == 0 {
		return m3uTag{}, errors.New("invalid tag")
	}
	if len(parts) == 1 {
		return m3uTag{strings.ToUpper(parts[0]), ""}, nil
	}
	return m3uTag{strings.ToUpper(parts[0]), parts[1]}, nil
}

// parseExtInf splits an EXTINF value into its duration and the title that
// follows the first comma outside quotes.
func parseExtInf(value string) (int64, string) {
	head, title := value, ""
	inQuotes := false
scan:
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				head, title = value[:i], value[i+1:]
				break scan
			}
		}
	}
	return parseDuration(head), strings.TrimSpace(title)
}

func parseDuration(head string) int64 {
	head = strings.TrimSpace(head)
	if i := strings.IndexAny(head, " \t"); i >= 0 {
		head = head[:i]
	}
	if d, err := strconv.ParseFloat(head, 64); err == nil && d >= 0 {
		return int64(d)
	}
	return -1
}

func parseM3U(r io.Reader) ([]Entry, error) {
	lines, err := readText(r)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0)
	var pending *Entry
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		if strings.HasPrefix(line, "#") {
			tag, err := parseTag(line)
			if err != nil || tag.Tag != "EXTINF" {
				// Headers, directives and plain comments
				continue
			}
			duration, title := parseExtInf(tag.Value)
			pending = &Entry{Title: title, Duration: duration}
			continue
		}

		entry := Entry{URI: line, Duration: -1}
		if pending != nil {
			entry.Title = pending.Title
			entry.Duration = pending.Duration
			pending = nil
		}
		entries = append(entries, entry)
	}
	return number(entries), nil
}

// M3UParser reads plain and extended M3U playlists.
type M3UParser struct{}

func (M3UParser) Name() string { return "m3u" }

func (M3UParser) Parse(r io.Reader) ([]Entry, error) { return parseM3U(r) }

// M3U8Parser reads UTF-8 M3U playlists. Input that is not valid UTF-8 is
// still accepted as Windows-1252.
type M3U8Parser struct{}

func (M3U8Parser) Name() string { return "m3u8" }

func (M3U8Parser) Parse(r io.Reader) ([]Entry, error) { return parseM3U(r) }
