package chat

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Powerisinschool/edupane-backend/internal/database"
)

const defaultHistoryLimit = 50

type frameKind int

// Closed set of inbound frame kinds. Frames with no declared type are
// chat messages; anything else is rejected.
const (
	frameChatMessage frameKind = iota
	frameLoadMore
	frameTyping
	frameUnknown
)

type inboundFrame struct {
	kind     frameKind
	rawType  string
	message  string
	before   *time.Time
	limit    int
	isTyping bool
}

type wireFrame struct {
	Type            string `json:"type,omitempty"`
	Message         string `json:"message,omitempty"`
	BeforeTimestamp string `json:"before_timestamp,omitempty"`
	Limit           int    `json:"limit,omitempty"`
	IsTyping        bool   `json:"is_typing,omitempty"`
}

func parseInboundFrame(raw []byte) (inboundFrame, error) {
	var wf wireFrame
	if err := json.Unmarshal(raw, &wf); err != nil {
		return inboundFrame{}, fmt.Errorf("parse frame: %w", err)
	}

	switch wf.Type {
	case "load_more":
		frame := inboundFrame{kind: frameLoadMore, limit: wf.Limit}
		if frame.limit <= 0 {
			frame.limit = defaultHistoryLimit
		}
		if wf.BeforeTimestamp != "" {
			ts, err := time.Parse(time.RFC3339Nano, wf.BeforeTimestamp)
			if err != nil {
				return inboundFrame{}, fmt.Errorf("parse before_timestamp: %w", err)
			}
			frame.before = &ts
		}
		return frame, nil
	case "typing":
		return inboundFrame{kind: frameTyping, isTyping: wf.IsTyping}, nil
	case "", "message":
		return inboundFrame{kind: frameChatMessage, message: wf.Message}, nil
	default:
		return inboundFrame{kind: frameUnknown, rawType: wf.Type}, nil
	}
}

// ServerFrame is an outbound frame. Every concrete frame carries an
// explicit "type" discriminator in its JSON form.
type ServerFrame interface {
	frameType() string
}

type ChatMessageFrame struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	MessageId int       `json:"message_id"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
}

func (ChatMessageFrame) frameType() string { return "chat_message" }

type HistoryMessage struct {
	Id        int       `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type HistoryFrame struct {
	Type     string           `json:"type"`
	Messages []HistoryMessage `json:"messages"`
}

func (HistoryFrame) frameType() string { return "history" }

type TypingStatusFrame struct {
	Type     string `json:"type"`
	User     string `json:"user"`
	IsTyping bool   `json:"is_typing"`
}

func (TypingStatusFrame) frameType() string { return "typing_status" }

type OnlineStatusFrame struct {
	Type        string `json:"type"`
	OnlineUsers []int  `json:"online_users"`
}

func (OnlineStatusFrame) frameType() string { return "online_status" }

type ReceiptFrame struct {
	Type      string    `json:"type"`
	MessageId int       `json:"message_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func (ReceiptFrame) frameType() string { return "receipt" }

type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (ErrorFrame) frameType() string { return "error" }

// BackboneDownFrame signals that the shared broadcast backbone is gone
// and the session is ending. The wire type keeps the name clients
// already handle.
type BackboneDownFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (BackboneDownFrame) frameType() string { return "redis_disconnect" }

// rawFrame is a pre-serialized frame as delivered by the backbone.
type rawFrame []byte

func (rawFrame) frameType() string { return "raw" }

func newChatMessageFrame(msg database.Message) ChatMessageFrame {
	return ChatMessageFrame{
		Type:      "chat_message",
		Message:   msg.Content,
		MessageId: msg.Id,
		User:      senderName(msg.Sender),
		Timestamp: msg.CreatedAt,
	}
}

func newHistoryFrame(msgs []database.Message) HistoryFrame {
	frame := HistoryFrame{Type: "history", Messages: make([]HistoryMessage, len(msgs))}
	for i, msg := range msgs {
		frame.Messages[i] = HistoryMessage{
			Id:        msg.Id,
			Sender:    senderName(msg.Sender),
			Content:   msg.Content,
			Timestamp: msg.CreatedAt,
		}
	}
	return frame
}

func newTypingStatusFrame(user string, isTyping bool) TypingStatusFrame {
	return TypingStatusFrame{Type: "typing_status", User: user, IsTyping: isTyping}
}

func newOnlineStatusFrame(onlineUsers []int) OnlineStatusFrame {
	return OnlineStatusFrame{Type: "online_status", OnlineUsers: onlineUsers}
}

func newReceiptFrame(msg database.Message) ReceiptFrame {
	return ReceiptFrame{Type: "receipt", MessageId: msg.Id, Status: "sent", Timestamp: msg.CreatedAt}
}

func newErrorFrame(message string) ErrorFrame {
	return ErrorFrame{Type: "error", Message: message}
}

func newBackboneDownFrame(message string) BackboneDownFrame {
	return BackboneDownFrame{Type: "redis_disconnect", Message: message}
}

// senderName renders a missing sender as Anonymous.
func senderName(name string) string {
	if name == "" {
		return "Anonymous"
	}
	return name
}

func encodeFrame(frame ServerFrame) ([]byte, error) {
	if raw, ok := frame.(rawFrame); ok {
		return raw, nil
	}
	return json.Marshal(frame)
}
