package wsstream

import (
	"io"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// SinkFunc opens the destination for one connection's packets.
type SinkFunc func(r *http.Request) (io.WriteCloser, error)

// Receiver is an http.Handler that upgrades to a websocket and appends every
// binary message to a sink. Text messages are ignored.
type Receiver struct {
	Sink     SinkFunc
	Upgrader websocket.Upgrader
}

// NewReceiver appends the packets of every connection to w. Writes from
// concurrent connections are serialized but may interleave by packet.
func NewReceiver(w io.Writer) *Receiver {
	shared := &lockedWriter{w: w}
	return &Receiver{
		Sink: func(*http.Request) (io.WriteCloser, error) { return shared, nil },
	}
}

func (rc *Receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := rc.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := logrus.WithField("remote", conn.RemoteAddr().String())

	sink, err := rc.Sink(r)
	if err != nil {
		log.WithError(err).Error("open packet sink")
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "sink unavailable"))
		return
	}
	defer sink.Close()

	log.Info("client connected")
	packets := 0
	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Warn("read failed")
			}
			break
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		if _, err := sink.Write(msg); err != nil {
			log.WithError(err).Error("write packet")
			break
		}
		packets++
	}
	log.WithField("packets", packets).Info("client disconnected")
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// Close is a no-op; the shared writer outlives connections.
func (l *lockedWriter) Close() error { return nil }
