package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matzehuels/jsonflow/pkg/controller"
)

// serveWS upgrades the connection, sends the current frame and forwards the
// page's actions to the controller. When the last page goes away the
// controller is told the surface detached.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	ctx := r.Context()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	hub := s.cfg.Hub
	c := hub.register(conn)
	go c.writePump()

	snap := s.cfg.Controller.Snapshot()
	hub.sendTo(c, Message{Action: ActionFrame, Frame: &snap})

	defer func() {
		if hub.unregister(c) == 0 {
			if err := s.cfg.Controller.Post(ctx, controller.Detached()); err != nil {
				s.logger.Debug("detach not delivered", "err", err)
			}
		}
	}()

	conn.SetReadLimit(maxClientMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var m Message
		if err := conn.ReadJSON(&m); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read failed", "client", c.id, "err", err)
			}
			return
		}

		var ev controller.Event
		switch m.Action {
		case ActionReady:
			ev = controller.Ready()
		case ActionStyle:
			ev = controller.Relayout()
		default:
			s.logger.Debug("ignoring websocket message", "client", c.id, "action", m.Action)
			continue
		}
		if err := s.cfg.Controller.Post(ctx, ev); err != nil {
			s.logger.Warn("event not delivered", "client", c.id, "err", err)
			return
		}
	}
}
