package transport

import (
	"path"
	"strings"

	"github.com/elnormous/contenttype"
)

const (
	MimeTypePLS  = "audio/x-scpls"
	MimeTypeM3U  = "audio/x-mpegurl"
	MimeTypeM3U8 = "audio/x-mpegurl"
	MimeTypeASX  = "video/x-ms-asf"
	MimeTypeHTML = "text/html"
)

var extensionTypes = map[string]string{
	"m3u":  MimeTypeM3U,
	"m3u8": MimeTypeM3U8,
	"pls":  MimeTypePLS,
	"asx":  MimeTypeASX,
	"wax":  "audio/x-ms-wax",
	"wvx":  "video/x-ms-wvx",
	"mp3":  "audio/mpeg",
	"mp2":  "audio/mpeg",
	"mpga": "audio/mpeg",
	"ogg":  "audio/ogg",
	"oga":  "audio/ogg",
	"opus": "audio/opus",
	"flac": "audio/flac",
	"aac":  "audio/aac",
	"m4a":  "audio/mp4",
	"wav":  "audio/x-wav",
	"wma":  "audio/x-ms-wma",
	"mid":  "audio/midi",
	"mp4":  "video/mp4",
	"m4v":  "video/mp4",
	"3gp":  "video/3gpp",
	"mkv":  "video/x-matroska",
	"webm": "video/webm",
	"avi":  "video/x-msvideo",
	"wmv":  "video/x-ms-wmv",
	"asf":  "video/x-ms-asf",
	"htm":  MimeTypeHTML,
	"html": MimeTypeHTML,
	"xml":  "text/xml",
	"txt":  "text/plain",
}

// Extension returns the lower-cased text after the last dot of the final
// path segment of uri, or "" when there is none or it is shorter than three
// characters.
func Extension(uri string) string {
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	base := path.Base(uri)
	i := strings.LastIndex(base, ".")
	if i < 0 {
		return ""
	}
	ext := strings.ToLower(base[i+1:])
	if len(ext) < 3 {
		return ""
	}
	return ext
}

// MimeTypeFromExtension looks up ext in the built in table.
func MimeTypeFromExtension(ext string) (string, bool) {
	mt, ok := extensionTypes[strings.ToLower(ext)]
	return mt, ok
}

// SniffExtension classifies uri by its extension, returning "" when the
// extension is unknown.
func SniffExtension(uri string) string {
	mt, _ := MimeTypeFromExtension(Extension(uri))
	return mt
}

// NormalizeContentType drops parameters and lower-cases a Content-Type
// header value. Unparsable values yield "".
func NormalizeContentType(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	mt := contenttype.NewMediaType(value)
	if mt.Type == "" || mt.Subtype == "" {
		return ""
	}
	return strings.ToLower(mt.Type + "/" + mt.Subtype)
}
