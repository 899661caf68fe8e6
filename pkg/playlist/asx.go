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
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
)

// ASXParser reads Windows Media ASX metafiles. Element and attribute names
// match case-insensitively. A document that fails to parse yields no
// entries, even if some were read before the error.
type ASXParser struct{}

func (ASXParser) Name() string { return "asx" }

func (ASXParser) Parse(r io.Reader) ([]Entry, error) {
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel
	d.Entity = xml.HTMLEntity

	entries := make([]Entry, 0)
	var (
		depth   int
		current *Entry
		field   string
		text    strings.Builder
		rooted  bool
	)

	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			name := strings.ToLower(t.Name.Local)
			switch {
			case depth == 1:
				rooted = true
			case depth == 2 && name == "entry":
				current = &Entry{Duration: -1}
			case depth == 3 && current != nil:
				switch name {
				case "ref":
					if current.URI == "" {
						current.URI = unescape(attr(t, "href"))
						field = name
					}
				case "title":
					field = name
				case "duration":
					current.Duration = parseClock(attr(t, "value"))
				}
				text.Reset()
			}
		case xml.CharData:
			if field != "" {
				text.Write(t)
			}
		case xml.EndElement:
			switch {
			case depth == 3 && current != nil && field != "":
				value := strings.TrimSpace(text.String())
				if field == "title" {
					current.Title = value
				} else if current.URI == "" && value != "" {
					current.URI = unescape(value)
				}
				field = ""
			case depth == 2 && current != nil:
				if current.URI != "" {
					entries = append(entries, *current)
				}
				current = nil
			}
			depth--
		}
	}
	if !rooted {
		return nil, errors.New("empty asx document")
	}
	return number(entries), nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if strings.EqualFold(a.Name.Local, name) {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

// parseClock converts an ASX clock value such as "00:03:25.05" to seconds.
func parseClock(value string) int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return -1
	}
	var seconds float64
	for _, part := range strings.Split(value, ":") {
		n, err := strconv.ParseFloat(part, 64)
		if err != nil || n < 0 {
			return -1
		}
		seconds = seconds*60 + n
	}
	return int64(seconds)
}
