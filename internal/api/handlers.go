package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/Powerisinschool/edupane-backend/internal/chat"
)

func (s *EdupaneApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *EdupaneApp) health(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

// serveWs upgrades the connection and binds it to one room for its
// lifetime. Identity was resolved out of band by identityMiddleware;
// anonymous visitors are upgraded too and may receive broadcasts.
func (s *EdupaneApp) serveWs(w http.ResponseWriter, r *http.Request) {
	room, err := s.db.GetRoomByExternalId(r.PathValue("room_id"))
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	identity := chat.Identity(chat.Anonymous{})
	if userId, ok := UserId(r.Context()); ok {
		account, err := s.db.GetAccountById(userId)
		if err != nil {
			// token names a user that no longer exists
			s.log.Printf("resolve account %d: %v", userId, err)
		} else {
			identity = chat.Authenticated{UserId: account.Id, Username: account.Username}
		}
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := s.cs.NewClient(identity, room, conn)
	s.cs.Connect(client)
	go client.Write()
	go client.Read()
}
