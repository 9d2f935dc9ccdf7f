// Package mirror publishes committed board frames to read-only viewers over
// WebSocket and advertises the feed on the local network.
//
// Wire format: every frame is one binary WebSocket message holding an
// 8-byte big-endian sequence number followed by a PNG image. Viewers never
// send anything; incoming messages are read and dropped.
package mirror

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/image/draw"
)

const (
	// Path is the HTTP path viewers connect to.
	Path = "/live"

	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Frame is one committed board image.
type Frame struct {
	Seq   uint64
	Image image.Image
}

type peer struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Mirror fans frames out to connected viewers. The latest frame is kept so
// that a viewer joining late sees the board immediately.
type Mirror struct {
	maxWidth int
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	peers  map[string]*peer
	latest []byte
	closed bool
}

// New returns a mirror that downscales frames wider than maxWidth. A
// maxWidth of 0 keeps the full resolution.
func New(maxWidth int) *Mirror {
	return &Mirror{
		maxWidth: maxWidth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		peers: make(map[string]*peer),
	}
}

// Publish encodes f once and queues it for every viewer. A viewer that has
// not yet taken its previous frame gets the new one in its place.
func (m *Mirror) Publish(f Frame) error {
	if f.Image == nil {
		return errors.New("mirror: frame has no image")
	}
	msg, err := encodeFrame(f, m.maxWidth)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.latest = msg
	for _, p := range m.peers {
		offer(p.send, msg)
	}
	return nil
}

// Feed publishes frames from ch in order until ch is closed.
func (m *Mirror) Feed(ch <-chan Frame) {
	for f := range ch {
		if err := m.Publish(f); err != nil {
			logger().Warn("[mirror] publish failed", "seq", f.Seq, "err", err)
		}
	}
}

// offer puts msg in a one-slot channel, replacing a stale frame.
func offer(ch chan []byte, msg []byte) {
	select {
	case ch <- msg:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- msg:
	default:
	}
}

// Peers returns the number of connected viewers.
func (m *Mirror) Peers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.peers)
}

// ServeHTTP upgrades a viewer connection.
func (m *Mirror) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger().Warn("[mirror] upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	p := &peer{id: uuid.NewString(), conn: conn, send: make(chan []byte, 1)}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		conn.Close()
		return
	}
	m.peers[p.id] = p
	if m.latest != nil {
		p.send <- m.latest
	}
	m.mu.Unlock()
	logger().Info("[mirror] viewer connected", "viewer", p.id, "remote", r.RemoteAddr)

	go m.writeLoop(p)
	m.readLoop(p)
}

// readLoop keeps the connection alive and notices when it goes away.
func (m *Mirror) readLoop(p *peer) {
	defer m.remove(p)
	p.conn.SetReadLimit(512)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := p.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (m *Mirror) writeLoop(p *peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = p.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := p.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				logger().Debug("[mirror] send failed", "viewer", p.id, "err", err)
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (m *Mirror) remove(p *peer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.peers[p.id]; !ok {
		return
	}
	delete(m.peers, p.id)
	close(p.send)
	logger().Info("[mirror] viewer disconnected", "viewer", p.id)
}

// Close disconnects every viewer and rejects new ones.
func (m *Mirror) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for id, p := range m.peers {
		delete(m.peers, id)
		close(p.send)
	}
}

// Handler returns a mux serving the mirror at Path.
func (m *Mirror) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Path, m)
	return mux
}

// ListenAndServe serves the mirror on addr until ctx is cancelled.
func (m *Mirror) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: m.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		m.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger().Info("[mirror] listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("mirror server: %w", err)
	}
	return nil
}

func encodeFrame(f Frame, maxWidth int) ([]byte, error) {
	img := downscale(f.Image, maxWidth)
	var buf bytes.Buffer
	var hdr [8]byte
	binary.BigEndian.PutUint64(hdr[:], f.Seq)
	buf.Write(hdr[:])
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode frame %d: %w", f.Seq, err)
	}
	return buf.Bytes(), nil
}

func decodeFrame(msg []byte) (Frame, error) {
	if len(msg) < 8 {
		return Frame{}, fmt.Errorf("short frame: %d bytes", len(msg))
	}
	img, err := png.Decode(bytes.NewReader(msg[8:]))
	if err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return Frame{Seq: binary.BigEndian.Uint64(msg[:8]), Image: img}, nil
}

// downscale shrinks src to maxWidth keeping its aspect ratio.
func downscale(src image.Image, maxWidth int) image.Image {
	b := src.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return src
	}
	h := b.Dy() * maxWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
