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
package backup

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yomguy/servestream-sub001/pkg/logger"
	"github.com/yomguy/servestream-sub001/pkg/streamdb"
	"github.com/yomguy/servestream-sub001/pkg/transport"
)

const (
	rootElement = "backup"
	itemElement = "uri"
)

var ErrInvalidBackup = errors.New("invalid backup file")

// item is one stream record as written to a backup. NULL columns are
// written as empty tags.
type item struct {
	Nickname    string `xml:"nickname" json:"nickname"`
	Protocol    string `xml:"protocol" json:"protocol"`
	Username    string `xml:"username" json:"username"`
	Password    string `xml:"password" json:"password"`
	Hostname    string `xml:"hostname" json:"hostname"`
	Port        int    `xml:"port" json:"port"`
	Path        string `xml:"path" json:"path"`
	Query       string `xml:"query" json:"query"`
	Reference   string `xml:"reference" json:"reference"`
	LastConnect int64  `xml:"lastconnect" json:"lastconnect"`
}

type document struct {
	XMLName xml.Name `xml:"backup"`
	Items   []item   `xml:"uri"`
}

func fromRecord(rec streamdb.StreamRecord) item {
	return item{
		Nickname:    rec.Nickname,
		Protocol:    rec.Protocol,
		Username:    streamdb.Deref(rec.Username),
		Password:    streamdb.Deref(rec.Password),
		Hostname:    streamdb.Deref(rec.Hostname),
		Port:        rec.Port,
		Path:        streamdb.Deref(rec.Path),
		Query:       streamdb.Deref(rec.Query),
		Reference:   streamdb.Deref(rec.Reference),
		LastConnect: rec.LastConnect,
	}
}

func (it item) record() streamdb.StreamRecord {
	return streamdb.StreamRecord{
		Nickname:    it.Nickname,
		Protocol:    strings.ToLower(it.Protocol),
		Username:    streamdb.NullString(it.Username),
		Password:    streamdb.NullString(it.Password),
		Hostname:    streamdb.NullString(it.Hostname),
		Port:        it.Port,
		Path:        streamdb.NullString(it.Path),
		Query:       streamdb.NullString(it.Query),
		Reference:   streamdb.NullString(it.Reference),
		LastConnect: it.LastConnect,
	}
}

// Export writes recs as a backup document.
func Export(w io.Writer, recs []streamdb.StreamRecord) error {
	doc := document{Items: make([]item, 0, len(recs))}
	for _, rec := range recs {
		doc.Items = append(doc.Items, fromRecord(rec))
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Import reads a backup document. Besides the XML layout it accepts the
// JSON layout {"backup": {"uri": [...]}}.
func Import(r io.Reader) ([]streamdb.StreamRecord, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(512)
	var items []item
	var err error
	if trimmed := bytes.TrimLeft(head, " \t\r\n\xef\xbb\xbf"); len(trimmed) > 0 && trimmed[0] == '{' {
		items, err = importJSON(br)
	} else {
		items, err = importXML(br)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBackup, err)
	}

	recs := make([]streamdb.StreamRecord, 0, len(items))
	for _, it := range items {
		recs = append(recs, it.record())
	}
	return recs, nil
}

func importJSON(r io.Reader) ([]item, error) {
	var doc struct {
		Backup struct {
			URI []item `json:"uri"`
		} `json:"backup"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	return doc.Backup.URI, nil
}

// importXML walks the document by hand so that tag names match
// case-insensitively.
func importXML(r io.Reader) ([]item, error) {
	d := xml.NewDecoder(r)
	var (
		items   []item
		current *item
		field   string
		text    strings.Builder
		depth   int
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
				if name != rootElement {
					return nil, fmt.Errorf("unexpected root element <%s>", t.Name.Local)
				}
				rooted = true
			case depth == 2 && name == itemElement:
				current = &item{}
			case depth == 3 && current != nil:
				field = name
				text.Reset()
			}
		case xml.CharData:
			if field != "" {
				text.Write(t)
			}
		case xml.EndElement:
			switch {
			case depth == 3 && current != nil && field != "":
				if err := current.set(field, strings.TrimSpace(text.String())); err != nil {
					return nil, err
				}
				field = ""
			case depth == 2 && current != nil:
				items = append(items, *current)
				current = nil
			}
			depth--
		}
	}
	if !rooted {
		return nil, errors.New("empty document")
	}
	return items, nil
}

func (it *item) set(field, value string) error {
	switch field {
	case "nickname":
		it.Nickname = value
	case "protocol":
		it.Protocol = value
	case "username":
		it.Username = value
	case "password":
		it.Password = value
	case "hostname":
		it.Hostname = value
	case "port":
		if value == "" {
			return nil
		}
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid port %q", value)
		}
		it.Port = port
	case "path":
		it.Path = value
	case "query":
		it.Query = value
	case "reference":
		it.Reference = value
	case "lastconnect":
		if value == "" {
			return nil
		}
		last, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid lastconnect %q", value)
		}
		it.LastConnect = last
	}
	return nil
}

// Report counts what Restore did with each backup entry.
type Report struct {
	Restored int `json:"restored"`
	Skipped  int `json:"skipped"`
	Invalid  int `json:"invalid"`
}

// Restore adds every record of the backup read from r that is not already
// stored. Entries with an unsupported scheme or an unusable URL are counted
// as invalid.
func Restore(ctx context.Context, store *streamdb.Store, registry *transport.Registry, r io.Reader) (Report, error) {
	recs, err := Import(r)
	if err != nil {
		return Report{}, err
	}

	var report Report
	for i := range recs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		rec := recs[i]

		t, err := registry.Lookup(rec.Protocol)
		if err != nil {
			logger.Warnf("Skipping backup entry %d: %v", i+1, err)
			report.Invalid++
			continue
		}
		if rec.Port <= 0 {
			rec.Port = t.DefaultPort()
		}
		u, err := t.CanonicalURI(transport.URIFromRecord(&rec).String(), false)
		if err != nil {
			logger.Warnf("Skipping backup entry %d: %v", i+1, err)
			report.Invalid++
			continue
		}

		_, created, err := store.FindOrCreate(ctx, t.SelectionArgs(u), func() *streamdb.StreamRecord {
			restored := t.NewStreamRecord(u)
			if rec.Nickname != "" {
				restored.Nickname = rec.Nickname
			}
			restored.Reference = rec.Reference
			restored.LastConnect = rec.LastConnect
			return restored
		})
		if err != nil {
			return report, err
		}
		if created {
			report.Restored++
		} else {
			report.Skipped++
		}
	}
	logger.Infof("Restored %d streams (%d already present, %d invalid)", report.Restored, report.Skipped, report.Invalid)
	return report, nil
}
