package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"assessment-engine/internal/app"
)

// WSHandler streams attempt lifecycle events to grading dashboards over a
// websocket: starts, auto-graded results, pending-manual arrivals, and
// manual-grade finalizations.
type WSHandler struct {
	service  *app.AssessmentService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AssessmentService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades the connection and relays the event feed, optionally
// filtered by quiz.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizFilter := r.URL.Query().Get("quizId")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := h.service.Subscribe()
	defer cancel()

	done := make(chan struct{})

	// Reader goroutine: the dashboard sends nothing meaningful, but reading
	// is how close frames surface.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			if quizFilter != "" && evt.QuizID != quizFilter {
				continue
			}
			if err := conn.WriteJSON(outboundMessage[app.AttemptEvent]{Type: string(evt.Type), Payload: evt}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}
