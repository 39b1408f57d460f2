package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
	"trip-route-service/internal/api/dto"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/services"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const (
	eventBuffer  = 64
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// EventsHandler streams route events of a session over a websocket and
// accepts position updates from the client.
type EventsHandler struct {
	Sessions       *SessionHandler
	OriginPatterns []string
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsClient struct {
	id   string
	sess *services.Session
	send chan []byte
}

func (c *wsClient) push(msg dto.EventMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case c.send <- data:
	default:
		log.Printf("ws: drop message, buffer full client=%s session=%s type=%s", c.id, c.sess.ID, msg.Type)
	}
}

func (h *EventsHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sess, r, ok := h.Sessions.session(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.OriginPatterns})
	if err != nil {
		log.Printf("ws: accept failed session=%s err=%v", sess.ID, err)
		return
	}

	client := &wsClient{id: uuid.New().String(), sess: sess, send: make(chan []byte, eventBuffer)}
	unsubscribe := sess.State.Subscribe(func(ev services.RouteEvent) {
		client.push(eventMessage(sess.ID, ev))
	})
	defer unsubscribe()

	log.Printf("ws: connected client=%s session=%s", client.id, sess.ID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	view := routeResponse(sess.ID, sess.State.View())
	client.push(dto.EventMessage{
		Type:         "snapshot",
		At:           time.Now().UTC(),
		CurrentIndex: view.CurrentIndex,
		Active:       view.Active,
		Route:        &view,
	})

	go h.writeLoop(ctx, conn, client)
	h.readLoop(ctx, conn, client)
}

func eventMessage(sessionID string, ev services.RouteEvent) dto.EventMessage {
	view := services.RouteView{Snapshot: ev.Snapshot, CurrentIndex: ev.CurrentIndex, Active: ev.Active}
	route := routeResponse(sessionID, view)
	route.PendingStops = nil

	return dto.EventMessage{
		Type:         string(ev.Type),
		At:           ev.At,
		CurrentIndex: ev.CurrentIndex,
		Active:       ev.Active,
		Route:        &route,
	}
}

func (h *EventsHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *wsClient) {
	defer func() {
		conn.Close(websocket.StatusNormalClosure, "")
		log.Printf("ws: disconnected client=%s session=%s", client.id, client.sess.ID)
	}()

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				log.Printf("ws: read error client=%s err=%v", client.id, err)
			}
			return
		}

		if msgType != websocket.MessageText {
			continue
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			client.push(dto.EventMessage{Type: "error", At: time.Now().UTC(), Error: "invalid message format"})
			continue
		}

		switch msg.Type {
		case "position":
			h.handlePosition(ctx, client, msg.Payload)
		case "ping":
			client.push(dto.EventMessage{Type: "pong", At: time.Now().UTC()})
		default:
			client.push(dto.EventMessage{Type: "error", At: time.Now().UTC(), Error: "unknown message type"})
		}
	}
}

func (h *EventsHandler) handlePosition(ctx context.Context, client *wsClient, payload json.RawMessage) {
	var req dto.PositionRequest
	pos := domain.Coordinates{}
	if err := json.Unmarshal(payload, &req); err == nil {
		pos = domain.Coordinates{Lat: req.Lat, Lng: req.Lng}
	}
	if payload == nil || !pos.Valid() {
		client.push(dto.EventMessage{Type: "error", At: time.Now().UTC(), Error: "invalid position"})
		return
	}

	update, err := client.sess.Tracker.OnPositionUpdate(ctx, pos)
	res := positionResponse(update)
	msg := dto.EventMessage{Type: "position", At: time.Now().UTC(), Position: &res}
	if err != nil {
		msg.Error = err.Error()
	}
	client.push(msg)
}

func (h *EventsHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *wsClient) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg := <-client.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
