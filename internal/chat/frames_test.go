package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Powerisinschool/edupane-backend/internal/database"
)

func Test_parseInboundFrame(t *testing.T) {
	t.Run("bare message", func(t *testing.T) {
		frame, err := parseInboundFrame([]byte(`{"message":"hello"}`))
		require.NoError(t, err)
		assert.Equal(t, frameChatMessage, frame.kind)
		assert.Equal(t, "hello", frame.message)
	})

	t.Run("explicit message type", func(t *testing.T) {
		frame, err := parseInboundFrame([]byte(`{"type":"message","message":"hi"}`))
		require.NoError(t, err)
		assert.Equal(t, frameChatMessage, frame.kind)
		assert.Equal(t, "hi", frame.message)
	})

	t.Run("load_more with cursor", func(t *testing.T) {
		frame, err := parseInboundFrame([]byte(`{"type":"load_more","before_timestamp":"2026-03-01T12:00:00Z","limit":20}`))
		require.NoError(t, err)
		assert.Equal(t, frameLoadMore, frame.kind)
		assert.Equal(t, 20, frame.limit)
		require.NotNil(t, frame.before)
		assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), frame.before.UTC())
	})

	t.Run("load_more defaults", func(t *testing.T) {
		frame, err := parseInboundFrame([]byte(`{"type":"load_more"}`))
		require.NoError(t, err)
		assert.Equal(t, frameLoadMore, frame.kind)
		assert.Equal(t, defaultHistoryLimit, frame.limit)
		assert.Nil(t, frame.before)
	})

	t.Run("load_more bad cursor", func(t *testing.T) {
		_, err := parseInboundFrame([]byte(`{"type":"load_more","before_timestamp":"yesterday"}`))
		assert.Error(t, err)
	})

	t.Run("typing", func(t *testing.T) {
		frame, err := parseInboundFrame([]byte(`{"type":"typing","is_typing":true}`))
		require.NoError(t, err)
		assert.Equal(t, frameTyping, frame.kind)
		assert.True(t, frame.isTyping)
	})

	t.Run("unknown type", func(t *testing.T) {
		frame, err := parseInboundFrame([]byte(`{"type":"selfie"}`))
		require.NoError(t, err)
		assert.Equal(t, frameUnknown, frame.kind)
		assert.Equal(t, "selfie", frame.rawType)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := parseInboundFrame([]byte(`{"message":`))
		assert.Error(t, err)
	})
}

func Test_senderName(t *testing.T) {
	assert.Equal(t, "amara", senderName("amara"))
	assert.Equal(t, "Anonymous", senderName(""))
}

func Test_newChatMessageFrame(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	frame := newChatMessageFrame(database.Message{Id: 9, Sender: "", Content: "hey", CreatedAt: ts})

	assert.Equal(t, "chat_message", frame.Type)
	assert.Equal(t, 9, frame.MessageId)
	assert.Equal(t, "Anonymous", frame.User)
	assert.Equal(t, ts, frame.Timestamp)
}

func Test_newHistoryFrame_Empty(t *testing.T) {
	frame := newHistoryFrame(nil)

	raw, err := encodeFrame(frame)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"history","messages":[]}`, string(raw), "empty history must encode an empty array, not null")
}

func Test_encodeFrame(t *testing.T) {
	t.Run("typed frame", func(t *testing.T) {
		raw, err := encodeFrame(newErrorFrame("nope"))
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, "error", decoded["type"])
		assert.Equal(t, "nope", decoded["message"])
	})

	t.Run("raw frame passes through", func(t *testing.T) {
		payload := []byte(`{"type":"chat_message","message":"relayed"}`)
		raw, err := encodeFrame(rawFrame(payload))
		require.NoError(t, err)
		assert.Equal(t, payload, raw)
	})

	t.Run("backbone down keeps its wire type", func(t *testing.T) {
		raw, err := encodeFrame(newBackboneDownFrame("Chat service connection lost. Please reconnect."))
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, "redis_disconnect", decoded["type"])
	})
}
