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
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

type Options struct {
	Timeout     time.Duration
	UserAgent   string
	InsecureTLS bool
}

func DefaultOptions() Options {
	return Options{
		Timeout:     6 * time.Second,
		UserAgent:   "ServeStream",
		InsecureTLS: true,
	}
}

// Registry maps a scheme name to its transport.
type Registry struct {
	transports map[string]Transport
}

func NewRegistry(opts Options) *Registry {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultOptions().UserAgent
	}
	r := &Registry{transports: make(map[string]Transport)}
	r.Register(newHTTP("http", 80, opts))
	r.Register(newHTTP("https", 443, opts))
	r.Register(newStreaming("rtsp", 80))
	r.Register(newStreaming("mms", 1755))
	r.Register(newStreaming("mmsh", 80))
	r.Register(newStreaming("mmst", 1755))
	r.Register(File{})
	return r
}

// Register adds or replaces the transport for t.Scheme().
func (r *Registry) Register(t Transport) {
	r.transports[strings.ToLower(t.Scheme())] = t
}

func (r *Registry) Lookup(scheme string) (Transport, error) {
	t, ok := r.transports[strings.ToLower(scheme)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
	return t, nil
}

func (r *Registry) Schemes() []string {
	schemes := make([]string, 0, len(r.transports))
	for s := range r.transports {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}

// SchemeOf returns the lower-cased scheme of input, or "" when input has
// none. A bare absolute path is reported as file.
func SchemeOf(input string) string {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "/") {
		return "file"
	}
	i := strings.Index(input, "://")
	if i <= 0 {
		return ""
	}
	scheme := input[:i]
	for j, c := range scheme {
		isAlpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !isAlpha && (j == 0 || !(c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.')) {
			return ""
		}
	}
	return strings.ToLower(scheme)
}

// Parse finds the transport for input and returns its canonical URI with
// credentials kept.
func (r *Registry) Parse(input string) (Transport, *url.URL, error) {
	input = strings.TrimSpace(input)
	scheme := SchemeOf(input)
	if scheme == "" {
		// The whole URL may arrive percent-encoded.
		if decoded, err := url.PathUnescape(input); err == nil {
			scheme = SchemeOf(decoded)
		}
	}
	if scheme == "" {
		return nil, nil, fmt.Errorf("%w: missing scheme", ErrUndeterminedURI)
	}
	t, err := r.Lookup(scheme)
	if err != nil {
		return nil, nil, err
	}
	if strings.HasPrefix(input, "/") {
		input = "file://" + input
	}
	u, err := t.CanonicalURI(input, false)
	if err != nil {
		return nil, nil, err
	}
	return t, u, nil
}
