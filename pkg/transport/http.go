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
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/valyala/fasthttp"
)

const maxRedirects = 10

// HTTP serves the http and https schemes.
type HTTP struct {
	network
	client  *fasthttp.Client
	headers map[string]string
}

func newHTTP(scheme string, port int, opts Options) *HTTP {
	client := &fasthttp.Client{
		WriteTimeout:       opts.Timeout,
		StreamResponseBody: true,
		Dial: func(addr string) (net.Conn, error) {
			conn, err := fasthttp.DialTimeout(addr, opts.Timeout)
			if err != nil {
				return nil, err
			}
			return &idleConn{Conn: conn, idle: opts.Timeout}, nil
		},
	}
	// Stream hosts commonly run self-signed certificates. The config is set
	// on both clients since a redirect may switch scheme.
	client.TLSConfig = &tls.Config{InsecureSkipVerify: opts.InsecureTLS}
	return &HTTP{
		network: network{scheme: scheme, defaultPort: port, playlist: true},
		client:  client,
		headers: map[string]string{
			"User-Agent": opts.UserAgent,
			"Accept":     "*/*",
		},
	}
}

// idleConn gives every read its own deadline, so a slow body keeps flowing
// for as long as bytes arrive within the timeout. Deadlines set by the client
// apply to writes only.
type idleConn struct {
	net.Conn
	idle time.Duration
}

func (c *idleConn) Read(p []byte) (int, error) {
	if c.idle > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.idle)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(p)
}

func (c *idleConn) SetReadDeadline(time.Time) error {
	return nil
}

func (c *idleConn) SetDeadline(t time.Time) error {
	return c.Conn.SetWriteDeadline(t)
}

// Connect issues a GET, following up to ten redirects, and returns once the
// response headers are in. Dialing is bounded by the timeout and every read,
// of headers or body, by the same timeout between bytes. The body is
// streamed.
func (h *HTTP) Connect(ctx context.Context, u *url.URL) (Connection, error) {
	currentURL := Scrub(u)
	authorization := ""
	if u.User != nil {
		password, _ := u.User.Password()
		authorization = "Basic " + base64.StdEncoding.EncodeToString([]byte(u.User.Username()+":"+password))
	}

	for i := 0; i < maxRedirects; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req := fasthttp.AcquireRequest()
		req.SetRequestURI(currentURL.String())
		req.Header.SetMethod(fasthttp.MethodGet)
		for key, value := range h.headers {
			req.Header.Set(key, value)
		}
		if authorization != "" {
			req.Header.Set(fasthttp.HeaderAuthorization, authorization)
		}

		resp := fasthttp.AcquireResponse()
		err := h.client.Do(req, resp)
		fasthttp.ReleaseRequest(req)
		if err != nil {
			fasthttp.ReleaseResponse(resp)
			return nil, fmt.Errorf("connecting to %s: %w", currentURL.Redacted(), err)
		}

		statusCode := resp.StatusCode()
		if statusCode/100 == 3 {
			location := string(resp.Header.Peek(fasthttp.HeaderLocation))
			resp.CloseBodyStream()
			fasthttp.ReleaseResponse(resp)
			if len(location) == 0 {
				return nil, fmt.Errorf("redirect response missing Location header")
			}
			next, err := currentURL.Parse(location)
			if err != nil {
				return nil, fmt.Errorf("failed to parse redirect location: %w", err)
			}
			if next.Scheme != "http" && next.Scheme != "https" {
				return nil, fmt.Errorf("redirect to unsupported scheme %q", next.Scheme)
			}
			// Credentials are only sent to the original host.
			if next.Host != currentURL.Host {
				authorization = ""
			}
			currentURL = next
			continue
		}

		if statusCode/100 != 2 {
			resp.CloseBodyStream()
			fasthttp.ReleaseResponse(resp)
			return nil, fmt.Errorf("http response code (%d)", statusCode)
		}

		// A missing header must not read as the client's text/plain default.
		resp.Header.SetNoDefaultContentType(true)
		raw := string(resp.Header.ContentType())
		return &httpConnection{
			ctx:         ctx,
			resp:        resp,
			body:        resp.BodyStream(),
			contentType: NormalizeContentType(raw),
		}, nil
	}

	return nil, fmt.Errorf("too many redirects")
}

type httpConnection struct {
	ctx         context.Context
	resp        *fasthttp.Response
	body        io.Reader
	contentType string
}

func (c *httpConnection) Read(p []byte) (int, error) {
	if c.body == nil {
		return 0, io.EOF
	}
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.body.Read(p)
}

func (c *httpConnection) Close() error {
	if c.resp == nil {
		return nil
	}
	err := c.resp.CloseBodyStream()
	fasthttp.ReleaseResponse(c.resp)
	c.resp = nil
	c.body = nil
	return err
}

func (c *httpConnection) ContentType() (string, bool) {
	return c.contentType, c.contentType != ""
}
