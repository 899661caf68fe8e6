package transport

import (
	"context"
	"net/url"
)

// Streaming is a media transport scheme (rtsp, mms, mmsh, mmst) handed to
// the player as is. No connection is opened; the type is sniffed from the
// extension only.
type Streaming struct {
	network
}

func newStreaming(scheme string, port int) *Streaming {
	return &Streaming{network: network{scheme: scheme, defaultPort: port, playlist: false}}
}

func (s *Streaming) Connect(ctx context.Context, u *url.URL) (Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &sniffedConnection{contentType: SniffExtension(u.Path)}, nil
}
