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
package streamserver

import (
	"net"
	"net/http"
	"strings"

	"github.com/oschwald/geoip2-golang"
	"github.com/yomguy/servestream-sub001/pkg/config"
	"github.com/yomguy/servestream-sub001/pkg/logger"
)

// countryLookup is the part of a GeoIP reader the filter needs.
type countryLookup interface {
	Country(ip net.IP) (*geoip2.Country, error)
}

type geoFilter struct {
	db        countryLookup
	closer    func() error
	whitelist map[string]bool
	internal  []*net.IPNet
}

// newGeoFilter returns nil when no database is configured.
func newGeoFilter(cfg config.GeoIPConfig) (*geoFilter, error) {
	if cfg.Database == "" {
		return nil, nil
	}
	db, err := geoip2.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	f, err := buildGeoFilter(db, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	f.closer = db.Close
	return f, nil
}

func buildGeoFilter(db countryLookup, cfg config.GeoIPConfig) (*geoFilter, error) {
	f := &geoFilter{
		db:        db,
		whitelist: make(map[string]bool),
		internal:  make([]*net.IPNet, 0),
	}
	for _, country := range cfg.Whitelist {
		f.whitelist[strings.ToUpper(country)] = true
	}
	for _, cidr := range cfg.InternalNetworks {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, err
		}
		f.internal = append(f.internal, ipnet)
	}
	return f, nil
}

func (f *geoFilter) Close() {
	if f != nil && f.closer != nil {
		f.closer()
	}
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	return ip
}

func (f *geoFilter) middleware(next http.Handler) http.Handler {
	if f == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		parsedIP := net.ParseIP(clientIP(r))
		if parsedIP == nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		for _, ipnet := range f.internal {
			if ipnet.Contains(parsedIP) {
				next.ServeHTTP(w, r)
				return
			}
		}

		record, err := f.db.Country(parsedIP)
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		countryCode := record.Country.IsoCode
		if !f.whitelist[countryCode] {
			logger.Warnf("Access Denied: %s, Country: %s", parsedIP, countryCode)
			http.Error(w, "Access Denied", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
