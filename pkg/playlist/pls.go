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
	"io"
	"net/url"
	"strconv"
	"strings"
)

// PLSParser reads the INI-like PLS format. FileN starts an entry, TitleN
// names it and LengthN closes it; an entry left open is kept at the end of
// the document.
type PLSParser struct{}

func (PLSParser) Name() string { return "pls" }

func (PLSParser) Parse(r io.Reader) ([]Entry, error) {
	lines, err := readText(r)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0)
	var current *Entry
	flush := func() {
		if current != nil {
			entries = append(entries, *current)
			current = nil
		}
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "[") || strings.HasPrefix(line, ";") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])

		switch {
		case strings.HasPrefix(key, "file"):
			flush()
			current = &Entry{URI: unescape(value), Duration: -1}
		case strings.HasPrefix(key, "title"):
			if current != nil {
				current.Title = value
			}
		case strings.HasPrefix(key, "length"):
			if current != nil {
				if d, err := strconv.ParseInt(value, 10, 64); err == nil && d >= 0 {
					current.Duration = d
				}
			}
			flush()
		}
	}
	flush()
	return number(entries), nil
}

// unescape decodes percent escapes and keeps the raw value when they are
// malformed. A '+' stays a '+'.
func unescape(value string) string {
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(decoded)
}
