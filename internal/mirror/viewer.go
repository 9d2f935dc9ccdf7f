package mirror

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
)

// Watch connects to the mirror at addr (host:port) and calls onFrame for
// every frame until ctx is cancelled or the connection drops. onFrame runs
// on the reading goroutine.
func Watch(ctx context.Context, addr string, onFrame func(Frame)) error {
	u := url.URL{Scheme: "ws", Host: addr, Path: Path}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u.String(), err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	logger().Info("[mirror] watching", "url", u.String())
	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read frame: %w", err)
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		f, err := decodeFrame(msg)
		if err != nil {
			logger().Warn("[mirror] dropping bad frame", "err", err)
			continue
		}
		onFrame(f)
	}
}
