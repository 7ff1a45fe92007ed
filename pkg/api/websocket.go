package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"nhooyr.io/websocket"

	"github.com/bkonicek/scramble/pkg/log"
)

// handleWebSocket streams the player's view of the board: the current
// snapshot on connect, then a fresh snapshot after every change, until the
// client disconnects.
func (s *APIServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	player := mux.Vars(r)["player"]
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error("Failed to accept WebSocket connection: %v", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closed")
	log.Debug("New WebSocket watch for player %s", player)

	// The stream is write-only; CloseRead cancels the context when the
	// client goes away.
	ctx := conn.CloseRead(r.Context())

	if err := conn.Write(ctx, websocket.MessageText, []byte(s.board.Look(player))); err != nil {
		log.Debug("Failed to write snapshot for player %s: %v", player, err)
		return
	}
	for {
		snapshot, err := s.board.Watch(ctx, player)
		if err != nil {
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}
		if err := conn.Write(ctx, websocket.MessageText, []byte(snapshot)); err != nil {
			log.Debug("Failed to write snapshot for player %s: %v", player, err)
			return
		}
	}
}
