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
	"strings"
	"testing"
)

func checkEntry(t *testing.T, got Entry, want Entry) {
	t.Helper()
	if got != want {
		t.Errorf("Unexpected entry. Expected: %+v, Got: %+v", want, got)
	}
}

func TestParseM3UTitleAttachesToNextURI(t *testing.T) {
	input := "#EXTM3U\n#EXTINF:-1,Title A\nhttp://a/1\nhttp://a/2\n"
	entries, err := M3UParser{}.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse M3U: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Unexpected number of entries. Expected: %d, Got: %d", 2, len(entries))
	}
	checkEntry(t, entries[0], Entry{URI: "http://a/1", Title: "Title A", Track: 1, Duration: -1})
	checkEntry(t, entries[1], Entry{URI: "http://a/2", Title: "", Track: 2, Duration: -1})
}

func TestParseM3UDurationAndComments(t *testing.T) {
	input := "#EXTM3U\r\n# a comment\r\n#EXTINF:215,Artist - Song, Live\r\n\r\n  /music/song.mp3  \r\n#EXTVLCOPT:http-user-agent=x\r\n#EXTINF:-1 tvg-name=\"a,b\",Radio\r\nhttp://radio/stream\r\n"
	entries, err := M3U8Parser{}.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse M3U8: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Unexpected number of entries. Expected: %d, Got: %d", 2, len(entries))
	}
	checkEntry(t, entries[0], Entry{URI: "/music/song.mp3", Title: "Artist - Song, Live", Track: 1, Duration: 215})
	checkEntry(t, entries[1], Entry{URI: "http://radio/stream", Title: "Radio", Track: 2, Duration: -1})
}

func TestParseM3UWindows1252(t *testing.T) {
	input := "#EXTINF:10,Caf\xe9\nhttp://x/1\n"
	entries, err := M3UParser{}.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse M3U: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Café" {
		t.Errorf("Unexpected entries. Expected title: %s, Got: %+v", "Café", entries)
	}
}

func TestParsePLS(t *testing.T) {
	input := "[playlist]\nFile1=http://s/1\nTitle1=One\nLength1=-1\nFile2=http://s/2\nNumberOfEntries=2\nVersion=2\n"
	entries, err := PLSParser{}.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse PLS: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Unexpected number of entries. Expected: %d, Got: %d", 2, len(entries))
	}
	checkEntry(t, entries[0], Entry{URI: "http://s/1", Title: "One", Track: 1, Duration: -1})
	checkEntry(t, entries[1], Entry{URI: "http://s/2", Title: "", Track: 2, Duration: -1})
}

func TestParsePLSWithoutLength(t *testing.T) {
	input := "[playlist]\nFile1=http://s/1\nTitle1=One\nFile2=http://s/2\nTitle2=Two\nLength2=300\nLength3=5\n"
	entries, err := PLSParser{}.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse PLS: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Unexpected number of entries. Expected: %d, Got: %d", 2, len(entries))
	}
	checkEntry(t, entries[0], Entry{URI: "http://s/1", Title: "One", Track: 1, Duration: -1})
	checkEntry(t, entries[1], Entry{URI: "http://s/2", Title: "Two", Track: 2, Duration: 300})
}

func TestParsePLSDecodesValues(t *testing.T) {
	input := "[playlist]\nfile1 = http://s/a%20b+c?x=1\n"
	entries, err := PLSParser{}.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse PLS: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Unexpected number of entries. Expected: %d, Got: %d", 1, len(entries))
	}
	expected := "http://s/a b+c?x=1"
	if entries[0].URI != expected {
		t.Errorf("Unexpected URI. Expected: %s, Got: %s", expected, entries[0].URI)
	}
}

func TestParseASX(t *testing.T) {
	input := `<asx version="3.0">
  <title>Station</title>
  <Entry>
    <Title>One</Title>
    <Ref HREF="http://a/1"/>
    <ref href="http://a/backup"/>
  </Entry>
  <ENTRY>
    <REF>http%3A%2F%2Fa%2F2</REF>
    <DURATION value="00:03:25.50"/>
  </ENTRY>
  <entry><abstract>no ref</abstract></entry>
</asx>`
	entries, err := ASXParser{}.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse ASX: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Unexpected number of entries. Expected: %d, Got: %d", 2, len(entries))
	}
	checkEntry(t, entries[0], Entry{URI: "http://a/1", Title: "One", Track: 1, Duration: -1})
	checkEntry(t, entries[1], Entry{URI: "http://a/2", Title: "", Track: 2, Duration: 205})
}

func TestParseASXMalformed(t *testing.T) {
	input := `<asx><entry><ref href="http://a/1"></entry></asx>`
	if _, err := (ASXParser{}).Parse(strings.NewReader(input)); err == nil {
		t.Error("Expected an error for malformed ASX")
	}

	entries := Expand("http://h/list.asx", "video/x-ms-asf", strings.NewReader(input), 0)
	if len(entries) != 1 {
		t.Fatalf("Unexpected number of entries. Expected: %d, Got: %d", 1, len(entries))
	}
	checkEntry(t, entries[0], Entry{URI: "http://h/list.asx", Track: 1, Duration: -1})
}

func TestForContentType(t *testing.T) {
	cases := map[string]string{
		"audio/x-mpegurl; charset=utf-8": "m3u",
		"application/vnd.apple.mpegurl":  "m3u",
		"Audio/X-SCPLS":                  "pls",
		"video/x-ms-asf":                 "asx",
		"audio/x-ms-wax":                 "asx",
	}
	for ct, name := range cases {
		p, ok := ForContentType(ct)
		if !ok || p.Name() != name {
			t.Errorf("Unexpected parser for %s. Expected: %s, Got: %v", ct, name, p)
		}
	}

	for _, ct := range []string{"", "*/*", "audio/mpeg", "text/html"} {
		if _, ok := ForContentType(ct); ok {
			t.Errorf("Unexpected parser for %q", ct)
		}
	}
}

func TestForExtension(t *testing.T) {
	cases := map[string]string{
		"http://x/y.PLS?z=1":   "pls",
		"file:///a/b/list.m3u": "m3u",
		"http://x/live.m3u8#t": "m3u8",
		"http://x/station.asx": "asx",
	}
	for uri, name := range cases {
		p, ok := ForExtension(uri)
		if !ok || p.Name() != name {
			t.Errorf("Unexpected parser for %s. Expected: %s, Got: %v", uri, name, p)
		}
	}

	for _, uri := range []string{"http://x/y.mp3", "http://x/", "http://x/a.m3"} {
		if _, ok := ForExtension(uri); ok {
			t.Errorf("Unexpected parser for %s", uri)
		}
	}
}

func TestExpandResolvesRelativeEntries(t *testing.T) {
	input := "song.mp3\n/abs/other.mp3\nhttp://elsewhere/x.mp3\n"
	entries := Expand("http://host/dir/list.m3u", "", strings.NewReader(input), 0)
	expected := []string{"http://host/dir/song.mp3", "http://host/abs/other.mp3", "http://elsewhere/x.mp3"}
	if len(entries) != len(expected) {
		t.Fatalf("Unexpected number of entries. Expected: %d, Got: %d", len(expected), len(entries))
	}
	for i, uri := range expected {
		if entries[i].URI != uri || entries[i].Track != i+1 {
			t.Errorf("Unexpected entry %d. Expected: %s, Got: %+v", i, uri, entries[i])
		}
	}
}

func TestExpandFallsBack(t *testing.T) {
	uri := "http://host/stream"
	cases := []struct {
		name        string
		contentType string
		body        string
		maxSize     int64
	}{
		{"unknown format", "audio/mpeg", "binary", 0},
		{"empty playlist", "audio/x-mpegurl", "#EXTM3U\n", 0},
		{"too large", "audio/x-mpegurl", "http://a/1\nhttp://a/2\n", 8},
	}
	for _, c := range cases {
		entries := Expand(uri, c.contentType, strings.NewReader(c.body), c.maxSize)
		if len(entries) != 1 || entries[0] != (Entry{URI: uri, Track: 1, Duration: -1}) {
			t.Errorf("%s: unexpected entries %+v", c.name, entries)
		}
	}
}
