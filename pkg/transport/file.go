package transport

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/yomguy/servestream-sub001/pkg/streamdb"
)

const sniffLength = 3072

// File serves local paths under the file scheme.
type File struct{}

func (File) Scheme() string            { return "file" }
func (File) DefaultPort() int          { return 0 }
func (File) UsesNetwork() bool         { return false }
func (File) IsPotentialPlaylist() bool { return true }

func (File) CanonicalURI(input string, scrub bool) (*url.URL, error) {
	u, err := decode(input)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(u.Scheme, "file") {
		return nil, undetermined("scheme is not file")
	}
	if u.Path == "" {
		return nil, undetermined("missing path")
	}
	return &url.URL{Scheme: "file", Path: u.Path}, nil
}

func (File) SelectionArgs(u *url.URL) streamdb.Selection {
	return streamdb.Selection{
		Protocol: "file",
		Path:     streamdb.NullString(u.Path),
	}
}

func (f File) NewStreamRecord(u *url.URL) *streamdb.StreamRecord {
	return &streamdb.StreamRecord{
		Nickname:    u.String(),
		Protocol:    "file",
		Path:        streamdb.NullString(u.Path),
		LastConnect: streamdb.NeverConnected,
	}
}

// Connect opens the file. The type comes from the extension, falling back
// to content sniffing when the extension is unknown.
func (File) Connect(ctx context.Context, u *url.URL) (Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(u.Path)
	if err != nil {
		return nil, err
	}
	info, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, err
	}
	if info.IsDir() {
		fh.Close()
		return nil, fmt.Errorf("%s is a directory", u.Path)
	}

	conn := &fileConnection{File: fh, reader: bufio.NewReaderSize(fh, sniffLength)}
	conn.contentType = SniffExtension(u.Path)
	if conn.contentType == "" {
		head, _ := conn.reader.Peek(sniffLength)
		if len(head) > 0 {
			if detected := NormalizeContentType(mimetype.Detect(head).String()); detected != "application/octet-stream" {
				conn.contentType = detected
			}
		}
	}
	return conn, nil
}

type fileConnection struct {
	*os.File
	reader      *bufio.Reader
	contentType string
}

func (c *fileConnection) Read(p []byte) (int, error) {
	return c.reader.Read(p)
}

// ContentType is always classifiable for files; an unknown type is "".
func (c *fileConnection) ContentType() (string, bool) {
	return c.contentType, true
}
