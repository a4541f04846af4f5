package database

import "time"

type EdupaneRepository interface {
	Ping() error

	GetAccountById(id int) (Account, error)

	GetRoomById(id int) (Room, error)
	GetRoomByExternalId(externalId string) (Room, error)
	// CreateRoom inserts the room and an owner membership in one
	// transaction.
	CreateRoom(params CreateRoomParams) (Room, error)
	FindDirectRoom(userA, userB int) (Room, error)

	GetRoomParticipantIds(roomId int) ([]int, error)
	GetMembership(userId, roomId int) (Membership, error)
	MembershipExists(userId, roomId int) bool
	CreateMembership(userId, roomId int, role string) (Membership, error)
	DeleteMembership(userId, roomId int) error

	GetInviteById(id int) (Invite, error)
	GetInvite(roomId, invitedId int) (Invite, error)
	CreateInvite(roomId, inviterId, invitedId int) (Invite, error)
	UpdateInviteStatus(id int, status string, respondedAt time.Time) (Invite, error)

	// CreateMessage assigns the creation timestamp server-side; the
	// returned message carries it as the pagination cursor.
	CreateMessage(roomId, senderId int, content string) (Message, error)
	// ListMessagesBefore returns up to limit messages newest first,
	// strictly older than before when it is non-nil.
	ListMessagesBefore(roomId int, before *time.Time, limit int) ([]Message, error)
}
