package types

import (
	"time"
)

type RoomType string

const (
	RoomPublic  RoomType = "public"
	RoomPrivate RoomType = "private"
	RoomGroup   RoomType = "group"
	RoomDirect  RoomType = "direct"
)

// Role is a membership role. Roles form an ordered set, admin highest.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleModerator    Role = "moderator"
	RoleTeacher      Role = "teacher"
	RoleRep          Role = "rep"
	RoleAssistantRep Role = "arep"
	RoleStudent      Role = "student"
	RoleObserver     Role = "observer"
)

var roleRank = map[Role]int{
	RoleAdmin:        6,
	RoleModerator:    5,
	RoleTeacher:      4,
	RoleRep:          3,
	RoleAssistantRep: 2,
	RoleStudent:      1,
	RoleObserver:     0,
}

// AtLeast reports whether r carries at least the privilege of other.
// Unknown roles rank below observer.
func (r Role) AtLeast(other Role) bool {
	if !r.Valid() {
		return false
	}
	return roleRank[r] >= roleRank[other]
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteRejected InviteStatus = "rejected"
)

// Room, Membership and Invite are the wire-facing shapes returned by
// the roster service; the database package keeps its own row models.
type Room struct {
	Id          int       `json:"id"`
	ExternalId  string    `json:"external_id"`
	Name        string    `json:"name"`
	Type        RoomType  `json:"room_type"`
	OwnerId     int       `json:"owner_id"`
	DefaultRole Role      `json:"default_role"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

type Membership struct {
	Id       int       `json:"id"`
	UserId   int       `json:"user_id"`
	RoomId   int       `json:"room_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at,omitempty"`
}

type Invite struct {
	Id        int          `json:"id"`
	RoomId    int          `json:"room_id"`
	InviterId int          `json:"inviter_id"`
	InvitedId int          `json:"invited_id"`
	Status    InviteStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at,omitempty"`
}
