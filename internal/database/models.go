package database

import (
	"database/sql"
	"time"
)

type Account struct {
	Id        int
	Username  string
	IsTeacher bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Room struct {
	Id          int
	ExternalId  string
	Name        string
	RoomType    string
	OwnerId     int
	DefaultRole string
	CreatedAt   time.Time
}

type Membership struct {
	Id       int
	UserId   int
	RoomId   int
	Role     string
	JoinedAt time.Time
}

type Message struct {
	Id        int
	RoomId    int
	SenderId  sql.NullInt64
	Sender    string
	Content   string
	CreatedAt time.Time
}

type Invite struct {
	Id          int
	RoomId      int
	InviterId   int
	InvitedId   int
	Status      string
	CreatedAt   time.Time
	RespondedAt sql.NullTime
}

type CreateRoomParams struct {
	ExternalId  string
	Name        string
	RoomType    string
	OwnerId     int
	DefaultRole string
	OwnerRole   string
}
