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
package streamdb

import (
	"gorm.io/gorm"
)

// NeverConnected is the last-connect value of a record that was never opened.
const NeverConnected int64 = -1

// StreamRecord is a saved or auto-discovered stream URL. Optional URL parts
// are stored as NULL so lookups can tell "absent" from "empty".
type StreamRecord struct {
	ID           int64   `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	Nickname     string  `json:"nickname" gorm:"column:nickname"`
	Protocol     string  `json:"protocol" gorm:"column:protocol"`
	Username     *string `json:"username,omitempty" gorm:"column:username"`
	Password     *string `json:"-" gorm:"column:password"`
	Hostname     *string `json:"hostname,omitempty" gorm:"column:hostname"`
	Port         int     `json:"port" gorm:"column:port"`
	Path         *string `json:"path,omitempty" gorm:"column:path"`
	Query        *string `json:"query,omitempty" gorm:"column:query"`
	Reference    *string `json:"reference,omitempty" gorm:"column:reference"`
	LastConnect  int64   `json:"last_connect" gorm:"column:lastconnect"`
	ListPosition int64   `json:"list_position" gorm:"column:listposition"`
	ContentType  *string `json:"content_type,omitempty" gorm:"column:content_type"`
}

func (StreamRecord) TableName() string {
	return "streams"
}

// Selection returns the lookup tuple identifying the record. Nickname and
// reference do not take part in equality.
func (r *StreamRecord) Selection() Selection {
	return Selection{
		Protocol: r.Protocol,
		Username: r.Username,
		Password: r.Password,
		Hostname: r.Hostname,
		Port:     r.Port,
		Path:     r.Path,
		Query:    r.Query,
	}
}

// Selection is the NULL-aware identity of a stream record.
type Selection struct {
	Protocol string
	Username *string
	Password *string
	Hostname *string
	Port     int
	Path     *string
	Query    *string
}

func (s Selection) apply(db *gorm.DB) *gorm.DB {
	db = db.Where("protocol = ?", s.Protocol).Where("port = ?", s.Port)
	db = whereNullable(db, "username", s.Username)
	db = whereNullable(db, "password", s.Password)
	db = whereNullable(db, "hostname", s.Hostname)
	db = whereNullable(db, "path", s.Path)
	return whereNullable(db, "query", s.Query)
}

func whereNullable(db *gorm.DB, column string, value *string) *gorm.DB {
	if value == nil {
		return db.Where(column + " IS NULL")
	}
	return db.Where(column+" = ?", *value)
}

// Equal reports whether two selections identify the same record.
func (s Selection) Equal(o Selection) bool {
	return s.Protocol == o.Protocol &&
		s.Port == o.Port &&
		equalNullable(s.Username, o.Username) &&
		equalNullable(s.Password, o.Password) &&
		equalNullable(s.Hostname, o.Hostname) &&
		equalNullable(s.Path, o.Path) &&
		equalNullable(s.Query, o.Query)
}

func equalNullable(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// MediaFile is one playable entry produced by expanding a stream,
// deduplicated by URI.
type MediaFile struct {
	ID        int64   `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	URI       string  `json:"uri" gorm:"column:uri"`
	Title     *string `json:"title,omitempty" gorm:"column:title"`
	Artist    *string `json:"artist,omitempty" gorm:"column:artist"`
	Album     *string `json:"album,omitempty" gorm:"column:album"`
	Duration  int64   `json:"duration" gorm:"column:duration"`
	Track     int     `json:"track" gorm:"column:track"`
	StreamID  *int64  `json:"stream_id,omitempty" gorm:"column:stream_id"`
	UpdatedAt int64   `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (MediaFile) TableName() string {
	return "media"
}

// Metadata is the tag information written back by enrichment.
type Metadata struct {
	Title    string
	Artist   string
	Album    string
	Duration int64
}

// Empty reports whether no field is known.
func (m Metadata) Empty() bool {
	return m.Title == "" && m.Artist == "" && m.Album == "" && m.Duration <= 0
}

// NullString maps the empty string to NULL.
func NullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the value of s or the empty string for NULL.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
