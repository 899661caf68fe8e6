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
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/yomguy/servestream-sub001/pkg/streamdb"
)

var (
	ErrUnsupportedScheme = errors.New("unsupported scheme")
	ErrUndeterminedURI   = errors.New("could not determine URI")
)

// Transport is the capability set of one URL scheme.
type Transport interface {
	Scheme() string
	DefaultPort() int
	UsesNetwork() bool
	IsPotentialPlaylist() bool

	// CanonicalURI decodes and rebuilds input in the form
	// scheme://[user:pass@]host:port/path[?query][#fragment]. With scrub set
	// the credentials are left out.
	CanonicalURI(input string, scrub bool) (*url.URL, error)

	// SelectionArgs maps a canonical URI to the stream record lookup tuple.
	SelectionArgs(u *url.URL) streamdb.Selection

	// NewStreamRecord builds an unsaved record for a canonical URI.
	NewStreamRecord(u *url.URL) *streamdb.StreamRecord

	Connect(ctx context.Context, u *url.URL) (Connection, error)
}

// Connection is an open byte stream to a resource.
type Connection interface {
	io.ReadCloser

	// ContentType returns the MIME type without parameters. ok is false
	// when the type cannot be classified.
	ContentType() (contentType string, ok bool)
}

// URIFromRecord rebuilds the canonical URI of a stored record, credentials
// included.
func URIFromRecord(rec *streamdb.StreamRecord) *url.URL {
	u := &url.URL{
		Scheme:   rec.Protocol,
		Path:     streamdb.Deref(rec.Path),
		RawQuery: streamdb.Deref(rec.Query),
		Fragment: streamdb.Deref(rec.Reference),
	}
	if rec.Hostname != nil {
		u.Host = net.JoinHostPort(*rec.Hostname, strconv.Itoa(rec.Port))
	}
	if rec.Username != nil && rec.Password != nil {
		u.User = url.UserPassword(*rec.Username, *rec.Password)
	}
	return u
}

// Scrub returns a copy of u without credentials.
func Scrub(u *url.URL) *url.URL {
	c := *u
	c.User = nil
	return &c
}

// WithCredentials returns raw carrying the credentials of rec when raw names
// the same scheme and host. Any other URI comes back unchanged.
func WithCredentials(raw string, rec *streamdb.StreamRecord) string {
	if rec == nil || rec.Hostname == nil || rec.Username == nil || rec.Password == nil {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User != nil {
		return raw
	}
	if !strings.EqualFold(u.Scheme, rec.Protocol) || !strings.EqualFold(u.Hostname(), *rec.Hostname) {
		return raw
	}
	if p := u.Port(); p != "" && p != strconv.Itoa(rec.Port) {
		return raw
	}
	u.User = url.UserPassword(*rec.Username, *rec.Password)
	return u.String()
}

// network holds the behaviour shared by every host based scheme.
type network struct {
	scheme      string
	defaultPort int
	playlist    bool
}

func (n network) Scheme() string            { return n.scheme }
func (n network) DefaultPort() int          { return n.defaultPort }
func (n network) UsesNetwork() bool         { return true }
func (n network) IsPotentialPlaylist() bool { return n.playlist }

func undetermined(reason string) error {
	return fmt.Errorf("%w: %s", ErrUndeterminedURI, reason)
}

func decode(input string) (*url.URL, error) {
	decoded, err := url.PathUnescape(strings.TrimSpace(input))
	if err != nil {
		return nil, undetermined("malformed percent-encoding")
	}
	u, err := url.Parse(decoded)
	if err != nil {
		return nil, undetermined(err.Error())
	}
	return u, nil
}

func (n network) CanonicalURI(input string, scrub bool) (*url.URL, error) {
	u, err := decode(input)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(u.Scheme, n.scheme) {
		return nil, undetermined("scheme is not "+n.scheme)
	}

	host := u.Hostname()
	if host == "" {
		return nil, undetermined("missing host")
	}

	port := n.defaultPort
	if p := u.Port(); p != "" {
		if port, err = strconv.Atoi(p); err != nil {
			return nil, undetermined("invalid port")
		}
	}

	// Some clients wrap host:port in brackets; split it back out.
	if h, p, found := strings.Cut(host, ":"); found && !strings.Contains(p, ":") {
		if port, err = strconv.Atoi(p); err != nil {
			return nil, undetermined("invalid port")
		}
		host = h
	}

	out := &url.URL{
		Scheme:   n.scheme,
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     u.Path,
		RawQuery: u.RawQuery,
		Fragment: u.Fragment,
	}
	if !scrub && u.User != nil {
		if password, ok := u.User.Password(); ok && u.User.Username() != "" {
			out.User = url.UserPassword(u.User.Username(), password)
		}
	}
	return out, nil
}

func credentials(u *url.URL) (*string, *string) {
	if u.User == nil {
		return nil, nil
	}
	password, ok := u.User.Password()
	if !ok || u.User.Username() == "" {
		return nil, nil
	}
	username := u.User.Username()
	return &username, &password
}

func (n network) port(u *url.URL) int {
	if p, err := strconv.Atoi(u.Port()); err == nil {
		return p
	}
	return n.defaultPort
}

func (n network) SelectionArgs(u *url.URL) streamdb.Selection {
	username, password := credentials(u)
	return streamdb.Selection{
		Protocol: n.scheme,
		Username: username,
		Password: password,
		Hostname: streamdb.NullString(u.Hostname()),
		Port:     n.port(u),
		Path:     streamdb.NullString(u.Path),
		Query:    streamdb.NullString(u.RawQuery),
	}
}

func (n network) NewStreamRecord(u *url.URL) *streamdb.StreamRecord {
	sel := n.SelectionArgs(u)
	return &streamdb.StreamRecord{
		Nickname:    Scrub(u).String(),
		Protocol:    sel.Protocol,
		Username:    sel.Username,
		Password:    sel.Password,
		Hostname:    sel.Hostname,
		Port:        sel.Port,
		Path:        sel.Path,
		Query:       sel.Query,
		Reference:   streamdb.NullString(u.Fragment),
		LastConnect: streamdb.NeverConnected,
	}
}

// sniffedConnection serves transports that never open a socket and only
// classify by extension.
type sniffedConnection struct {
	contentType string
}

func (c *sniffedConnection) Read(p []byte) (int, error)  { return 0, io.EOF }
func (c *sniffedConnection) Close() error                { return nil }
func (c *sniffedConnection) ContentType() (string, bool) { return c.contentType, true }
