// Package wsstream carries encoded video packets over a websocket, one
// binary message per packet.
package wsstream

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/thesyncim/libgovideoio/pkg/frame"
)

// ErrStreamerClosed is returned by Send after Close.
var ErrStreamerClosed = errors.New("streamer is closed")

// PacketSource yields one encoded packet per Read, like a capture opened in
// raw packet mode.
type PacketSource interface {
	Read(dst *frame.VideoFrame) (bool, error)
}

// Streamer sends packets to a websocket endpoint.
type Streamer struct {
	mu   sync.Mutex
	conn *websocket.Conn
	sent int
	log  *logrus.Entry
}

// Dial connects to a ws:// or wss:// url.
func Dial(ctx context.Context, url string, header http.Header) (*Streamer, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	log := logrus.WithField("remote", conn.RemoteAddr().String())
	log.Info("connected to packet sink")
	return &Streamer{conn: conn, log: log}, nil
}

// Send writes one packet as a binary message.
func (s *Streamer) Send(packet []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return ErrStreamerClosed
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, packet); err != nil {
		return err
	}
	s.sent++
	if s.sent%100 == 0 {
		s.log.WithField("packets", s.sent).Debug("streaming")
	}
	return nil
}

// Stream sends every packet read from src until the source ends or ctx is
// done, and returns the number of packets sent.
func (s *Streamer) Stream(ctx context.Context, src PacketSource) (int, error) {
	var f frame.VideoFrame
	defer f.Release()

	n := 0
	for {
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		default:
		}

		ok, err := src.Read(&f)
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		if err := s.Send(f.Bytes()); err != nil {
			return n, err
		}
		n++
	}
}

// Close sends a normal closure message and closes the connection.
func (s *Streamer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		s.log.WithError(err).Warn("close handshake failed")
	}
	err := s.conn.Close()
	s.conn = nil
	s.log.WithField("packets", s.sent).Info("disconnected from packet sink")
	return err
}
