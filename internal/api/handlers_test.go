package api

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Powerisinschool/edupane-backend/internal/database"
)

func Test_health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		db := &database.MockEdupaneRepository{}
		db.On("Ping").Return(nil)
		app := newTestApp(t, db)

		w := httptest.NewRecorder()
		app.health(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("database down", func(t *testing.T) {
		db := &database.MockEdupaneRepository{}
		db.On("Ping").Return(errors.New("connection refused"))
		app := newTestApp(t, db)

		w := httptest.NewRecorder()
		app.health(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func Test_serveWs_UnknownRoom(t *testing.T) {
	db := &database.MockEdupaneRepository{}
	db.On("GetRoomByExternalId", "missing").Return(database.Room{}, sql.ErrNoRows)
	app := newTestApp(t, db)

	srv := httptest.NewServer(app.srv.Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws/chat/missing")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func dialWs(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(time.Second))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func Test_serveWs_AuthenticatedSession(t *testing.T) {
	room := database.Room{Id: 7, ExternalId: "genchem", Name: "General Chemistry", RoomType: "public"}
	saved := database.Message{Id: 12, RoomId: 7, Sender: "amara", Content: "hello", CreatedAt: time.Now().UTC()}

	db := &database.MockEdupaneRepository{}
	db.On("GetRoomByExternalId", "genchem").Return(room, nil)
	db.On("GetAccountById", 42).Return(database.Account{Id: 42, Username: "amara"}, nil)
	db.On("GetRoomParticipantIds", 7).Return([]int{42}, nil)
	db.On("CreateMessage", 7, 42, "hello").Return(saved, nil)
	app := newTestApp(t, db)

	srv := httptest.NewServer(app.srv.Handler)
	defer srv.Close()

	conn := dialWs(t, srv, "/ws/chat/genchem?token="+mintToken(t, testSigningKey, 42))

	frame := readFrame(t, conn)
	assert.Equal(t, "online_status", frame["type"])
	assert.Equal(t, []any{float64(42)}, frame["online_users"])

	require.NoError(t, conn.WriteJSON(map[string]string{"message": "hello"}))

	frame = readFrame(t, conn)
	assert.Equal(t, "chat_message", frame["type"])
	assert.Equal(t, "hello", frame["message"])
	assert.Equal(t, "amara", frame["user"])
	assert.Equal(t, float64(12), frame["message_id"])

	frame = readFrame(t, conn)
	assert.Equal(t, "receipt", frame["type"])
	assert.Equal(t, "sent", frame["status"])
	assert.Equal(t, float64(12), frame["message_id"])
}

func Test_serveWs_AnonymousSession(t *testing.T) {
	room := database.Room{Id: 7, ExternalId: "genchem", RoomType: "public"}

	db := &database.MockEdupaneRepository{}
	db.On("GetRoomByExternalId", "genchem").Return(room, nil)
	db.On("ListMessagesBefore", 7, (*time.Time)(nil), 50).Return([]database.Message{}, nil)
	app := newTestApp(t, db)

	srv := httptest.NewServer(app.srv.Handler)
	defer srv.Close()

	conn := dialWs(t, srv, "/ws/chat/genchem")

	// history is readable without a token
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "load_more"}))
	frame := readFrame(t, conn)
	assert.Equal(t, "history", frame["type"])

	// sending is not
	require.NoError(t, conn.WriteJSON(map[string]string{"message": "hi"}))
	frame = readFrame(t, conn)
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, "You must be authenticated to send messages", frame["message"])
}

func Test_serveWs_MalformedFrame(t *testing.T) {
	room := database.Room{Id: 7, ExternalId: "genchem", RoomType: "public"}

	db := &database.MockEdupaneRepository{}
	db.On("GetRoomByExternalId", "genchem").Return(room, nil)
	app := newTestApp(t, db)

	srv := httptest.NewServer(app.srv.Handler)
	defer srv.Close()

	conn := dialWs(t, srv, "/ws/chat/genchem")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"message":`)))

	frame := readFrame(t, conn)
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, "Invalid message format", frame["message"])

	// the session survives a bad frame
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "selfie"}))
	frame = readFrame(t, conn)
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, "Unknown message type: selfie", frame["message"])
}
