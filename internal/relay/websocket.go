package relay

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mwiater/hunger/internal/logging"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 64 << 10            // A minute of samples fits comfortably.
	redialPeriod   = 5 * time.Second
)

// RelayPath is where the phone accepts wearable connections.
const RelayPath = "/relay"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// WSInbox accepts websocket connections from wearables.
type WSInbox struct {
	msgs   chan Message
	mu     sync.RWMutex
	conns  map[*websocket.Conn]struct{}
	closed bool
	server *http.Server
}

// NewWSInbox creates an inbox; serve it with Handler or ListenWebSocket.
func NewWSInbox(buffer int) *WSInbox {
	if buffer < 1 {
		buffer = 1
	}
	return &WSInbox{msgs: make(chan Message, buffer), conns: make(map[*websocket.Conn]struct{})}
}

// ListenWebSocket starts an inbox serving RelayPath on addr.
func ListenWebSocket(addr string, buffer int) (*WSInbox, error) {
	in := NewWSInbox(buffer)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("GET "+RelayPath, in.Handler())
	in.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := in.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.LogEvent("[RELAY] websocket server stopped: %v", err)
		}
	}()
	logging.LogEvent("[RELAY] websocket phone listening on ws://%s%s", ln.Addr(), RelayPath)
	return in, nil
}

// Handler upgrades wearable connections and pumps their windows into the inbox.
func (in *WSInbox) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.LogEvent("[RELAY] websocket upgrade failed: %v", err)
			return
		}
		if !in.register(conn) {
			_ = conn.Close()
			return
		}
		logging.LogEvent("[RELAY] wearable connected from %s", conn.RemoteAddr())
		go in.pingPump(conn)
		in.readPump(conn)
	})
}

func (in *WSInbox) register(conn *websocket.Conn) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return false
	}
	in.conns[conn] = struct{}{}
	return true
}

func (in *WSInbox) unregister(conn *websocket.Conn) {
	in.mu.Lock()
	delete(in.conns, conn)
	in.mu.Unlock()
	_ = conn.Close()
}

func (in *WSInbox) readPump(conn *websocket.Conn) {
	defer func() {
		in.unregister(conn)
		logging.LogEvent("[RELAY] wearable disconnected from %s", conn.RemoteAddr())
	}()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(pongWait)) })
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.LogEvent("[RELAY] websocket read error: %v", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		msg, err := Decode(raw)
		if err != nil {
			logging.LogEvent("[RELAY] dropping message from %s: %v", conn.RemoteAddr(), err)
			continue
		}
		logging.LogRequest("WATCH->PHONE", conn.RemoteAddr().String(), "hr", raw)
		in.deliver(msg)
	}
}

func (in *WSInbox) deliver(msg Message) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if in.closed {
		return
	}
	if err := offer(in.msgs, msg); err != nil {
		logging.LogEvent("[RELAY] %v", err)
	}
}

func (in *WSInbox) pingPump(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for range ticker.C {
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
			return
		}
	}
}

// Messages returns the inbound window stream.
func (in *WSInbox) Messages() <-chan Message { return in.msgs }

// Reachable reports whether at least one wearable is connected.
func (in *WSInbox) Reachable() bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.conns) > 0
}

// Close drops every wearable connection, stops the server if any and closes the stream.
func (in *WSInbox) Close() error {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return nil
	}
	in.closed = true
	for conn := range in.conns {
		_ = conn.Close()
	}
	close(in.msgs)
	in.mu.Unlock()

	if in.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return in.server.Shutdown(ctx)
	}
	return nil
}

// WSLink is the wearable's websocket connection to the phone.
type WSLink struct {
	url    string
	dialer *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSLink creates a link to the phone at url. Call Run to keep it connected.
func NewWSLink(url string) *WSLink {
	return &WSLink{url: url, dialer: websocket.DefaultDialer}
}

// Run dials the phone and redials whenever the connection drops, until ctx is done.
func (l *WSLink) Run(ctx context.Context) {
	for {
		if err := l.dial(ctx); err != nil {
			logging.LogEvent("[RELAY] phone not reachable at %s: %v", l.url, err)
		} else {
			l.drain()
		}
		select {
		case <-ctx.Done():
			l.disconnect()
			return
		case <-time.After(redialPeriod):
		}
	}
}

func (l *WSLink) dial(ctx context.Context) error {
	conn, _, err := l.dialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
	logging.LogEvent("[RELAY] connected to phone at %s", l.url)
	return nil
}

// drain reads until the connection fails so pings are answered and loss is noticed.
func (l *WSLink) drain() {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn == nil {
		return
	}
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	l.mu.Lock()
	if l.conn == conn {
		l.conn = nil
	}
	l.mu.Unlock()
	_ = conn.Close()
}

func (l *WSLink) disconnect() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		_ = l.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		_ = l.conn.Close()
		l.conn = nil
	}
}

// Reachable reports whether the phone connection is open.
func (l *WSLink) Reachable() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn != nil
}

// Send writes msg as one text frame.
func (l *WSLink) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := Encode(msg)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return ErrUnreachable
	}
	logging.LogRequest("WATCH->PHONE", l.url, "hr", payload)
	_ = l.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := l.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		_ = l.conn.Close()
		l.conn = nil
		return err
	}
	return nil
}

// Close disconnects from the phone.
func (l *WSLink) Close() error {
	l.disconnect()
	return nil
}
