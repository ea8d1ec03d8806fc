package httpinterface

import (
	"net/http"
	"sync"
	"time"

	"github.com/evrwallet/evrwallet-daemon/internal/core/application"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// StateEventType is the type of the first message of every stream.
	StateEventType = "state"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// streamHub keeps track of the open event streams. Each of them counts as an
// attached client, so the subscriptions poll intensively while at least one
// is open.
type streamHub struct {
	wallet application.WalletService

	lock    sync.Mutex
	streams map[string]*websocket.Conn
}

func newStreamHub(wallet application.WalletService) *streamHub {
	return &streamHub{
		wallet:  wallet,
		streams: make(map[string]*websocket.Conn),
	}
}

func (h *streamHub) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("http: failed to upgrade event stream")
		return
	}

	id := uuid.New().String()
	events, unregister := h.wallet.RegisterEventListener()
	h.add(id, conn)
	defer func() {
		unregister()
		h.remove(id)
		conn.Close()
	}()

	closed := make(chan struct{})
	go h.readLoop(conn, closed)

	if err := h.write(conn, application.Event{
		Type:    StateEventType,
		Payload: h.wallet.GetState(),
	}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case event, ok := <-events:
			if !ok {
				conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(writeWait),
				)
				return
			}
			if err := h.write(conn, event); err != nil {
				log.WithError(err).Debugf("http: stream %s write failed", id)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop consumes the control frames of the client and reports when the
// stream is gone.
func (h *streamHub) readLoop(conn *websocket.Conn, closed chan struct{}) {
	defer close(closed)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *streamHub) write(conn *websocket.Conn, event application.Event) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(event)
}

// add and remove report the count with the lock held so that the wallet
// never sees counts out of order.
func (h *streamHub) add(id string, conn *websocket.Conn) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.streams[id] = conn
	log.Debugf("http: stream %s opened (%d active)", id, len(h.streams))
	h.wallet.SetActiveConnections(len(h.streams))
}

func (h *streamHub) remove(id string) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if _, ok := h.streams[id]; !ok {
		return
	}
	delete(h.streams, id)
	log.Debugf("http: stream %s closed (%d active)", id, len(h.streams))
	h.wallet.SetActiveConnections(len(h.streams))
}

func (h *streamHub) count() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.streams)
}

// closeAll drops every open stream. Hijacked connections are not tracked by
// http.Server.Shutdown.
func (h *streamHub) closeAll() {
	h.lock.Lock()
	defer h.lock.Unlock()
	for _, conn := range h.streams {
		conn.Close()
	}
}
