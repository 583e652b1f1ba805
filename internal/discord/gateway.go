package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const gatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

// intent Guilds — больше боту ничего не нужно, команды приходят интеракциями
const intentGuilds = 1 << 0

// opcodes шлюза
const (
	opDispatch     = 0
	opHeartbeat    = 1
	opIdentify     = 2
	opHello        = 10
	opHeartbeatACK = 11
)

type payload struct {
	Op int             `json:"op"`
	T  string          `json:"t,omitempty"`
	S  *int64          `json:"s,omitempty"`
	D  json.RawMessage `json:"d,omitempty"`
}

// Gateway — WebSocket-подключение к шлюзу Discord: identify, heartbeat,
// чтение dispatch-событий, автоматический реконнект с backoff.
type Gateway struct {
	token string

	conn   *websocket.Conn
	closed atomic.Bool

	wmu    sync.Mutex    // сериализует запись в websocket
	cmu    sync.Mutex    // защищает conn и hbStop: закрытие может прийти
	// одновременно из Disconnect, ctx-сторожа и error-ветки readLoop
	hbStop chan struct{} // стоп-канал heartbeat-горутины
	seq    atomic.Int64  // последний увиденный sequence number

	// "События" (колбэки полями структуры)
	OnConnecting   func()
	OnReady        func()
	OnInteraction  func(*Interaction)
	OnDisconnected func()
	OnError        func(error)
}

func NewGateway(token string) *Gateway {
	return &Gateway{token: token}
}

// Connect — устанавливает WebSocket, проходит handshake и запускает readLoop.
// Контекст можно отменить для мягкого выхода из readLoop.
func (g *Gateway) Connect(ctx context.Context) error {
	if g.OnConnecting != nil {
		g.OnConnecting()
	}
	conn, err := g.dialAndSetup()
	if err != nil {
		return err
	}
	g.cmu.Lock()
	g.conn = conn
	g.cmu.Unlock()
	g.closed.Store(false)

	go g.readLoop(ctx)
	return nil
}

func (g *Gateway) Disconnect() {
	g.closed.Store(true)
	g.closeConn()
	if g.OnDisconnected != nil {
		g.OnDisconnected()
	}
}

func (g *Gateway) IsConnected() bool {
	g.cmu.Lock()
	defer g.cmu.Unlock()
	return g.conn != nil && !g.closed.Load()
}

// dialAndSetup — dial, чтение HELLO, запуск heartbeat по интервалу сервера,
// отправка IDENTIFY. После этого сервер пришлёт READY как обычный dispatch.
func (g *Gateway) dialAndSetup() (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(gatewayURL, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(8 << 20)

	// первым фреймом шлюз обязан прислать HELLO
	var p payload
	_ = conn.SetReadDeadline(time.Now().Add(15 * time.Second))
	if err := conn.ReadJSON(&p); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("gateway hello: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})
	if p.Op != opHello {
		_ = conn.Close()
		return nil, fmt.Errorf("gateway hello: unexpected op %d", p.Op)
	}
	var hello struct {
		HeartbeatInterval int64 `json:"heartbeat_interval"` // millis
	}
	if err := json.Unmarshal(p.D, &hello); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("gateway hello: %w", err)
	}

	g.startHeartbeat(conn, time.Duration(hello.HeartbeatInterval)*time.Millisecond)

	identify := map[string]any{
		"token":   g.token,
		"intents": intentGuilds,
		"properties": map[string]string{
			"os":      "linux",
			"browser": "tftwatch",
			"device":  "tftwatch",
		},
	}
	if err := g.writeJSON(conn, payload{Op: opIdentify, D: mustRaw(identify)}); err != nil {
		g.stopHeartbeat()
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// безопасно закрыть текущее соединение; повторный вызов — no-op
func (g *Gateway) closeConn() {
	g.cmu.Lock()
	defer g.cmu.Unlock()
	g.stopHeartbeatLocked()
	if g.conn != nil {
		_ = g.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closing"),
			time.Now().Add(500*time.Millisecond))
		_ = g.conn.Close()
		g.conn = nil
	}
}

func (g *Gateway) startHeartbeat(c *websocket.Conn, every time.Duration) {
	g.cmu.Lock()
	g.stopHeartbeatLocked() // на всякий — останавливаем предыдущую
	stop := make(chan struct{})
	g.hbStop = stop
	g.cmu.Unlock()

	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				if err := g.sendHeartbeat(c); err != nil && g.OnError != nil && !g.closed.Load() {
					g.OnError(fmt.Errorf("heartbeat: %w", err))
				}
			case <-stop:
				return
			}
		}
	}()
}

func (g *Gateway) stopHeartbeat() {
	g.cmu.Lock()
	defer g.cmu.Unlock()
	g.stopHeartbeatLocked()
}

// только под cmu: канал закрывается ровно один раз
func (g *Gateway) stopHeartbeatLocked() {
	if g.hbStop != nil {
		close(g.hbStop)
		g.hbStop = nil
	}
}

func (g *Gateway) sendHeartbeat(c *websocket.Conn) error {
	var d json.RawMessage = []byte("null")
	if s := g.seq.Load(); s > 0 {
		d = []byte(fmt.Sprintf("%d", s))
	}
	return g.writeJSON(c, payload{Op: opHeartbeat, D: d})
}

// запись строго через один мьютекс + write-deadline
func (g *Gateway) writeJSON(c *websocket.Conn, p payload) error {
	g.wmu.Lock()
	defer g.wmu.Unlock()
	_ = c.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.WriteJSON(p)
}

func (g *Gateway) readLoop(ctx context.Context) {
	defer func() {
		g.closed.Store(true)
		g.closeConn()
		if g.OnDisconnected != nil {
			g.OnDisconnected()
		}
	}()

	// закрыть по отмене контекста
	go func() {
		<-ctx.Done()
		g.closeConn()
	}()

	backoff := time.Second

	for {
		g.cmu.Lock()
		conn := g.conn
		g.cmu.Unlock()

		if conn != nil {
			var p payload
			err := conn.ReadJSON(&p)
			if err == nil {
				g.handle(conn, &p)
				backoff = time.Second
				continue
			}

			// ошибка чтения
			if g.OnError != nil && !g.closed.Load() {
				g.OnError(err)
			}
			if g.closed.Load() {
				return
			}
		}

		g.closeConn()

		// реконнект с backoff; после удачного dial сервер заново пришлёт READY
		for !g.closed.Load() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
				conn, derr := g.dialAndSetup()
				if derr != nil {
					if g.OnError != nil {
						g.OnError(fmt.Errorf("reconnect failed (wait %v): %w", backoff, derr))
					}
					if backoff < 30*time.Second {
						backoff *= 2
						if backoff > 30*time.Second {
							backoff = 30 * time.Second
						}
					}
					continue
				}
				g.cmu.Lock()
				g.conn = conn
				g.cmu.Unlock()
				backoff = time.Second
				goto CONTINUE_READ
			}
		}
	CONTINUE_READ:
		continue
	}
}

func (g *Gateway) handle(conn *websocket.Conn, p *payload) {
	if p.S != nil {
		g.seq.Store(*p.S)
	}
	switch p.Op {
	case opHeartbeat:
		// сервер попросил heartbeat вне расписания
		_ = g.sendHeartbeat(conn)
	case opHeartbeatACK:
		// ок, ничего не делаем
	case opDispatch:
		switch p.T {
		case "READY":
			if g.OnReady != nil {
				go g.OnReady()
			}
		case "INTERACTION_CREATE":
			var i Interaction
			if err := json.Unmarshal(p.D, &i); err != nil {
				if g.OnError != nil {
					g.OnError(fmt.Errorf("interaction decode: %w", err))
				}
				return
			}
			if g.OnInteraction != nil {
				g.OnInteraction(&i)
			}
		}
	}
}

func mustRaw(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
