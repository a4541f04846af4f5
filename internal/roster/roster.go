package roster

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/teris-io/shortid"

	"github.com/Powerisinschool/edupane-backend/internal/database"
	"github.com/Powerisinschool/edupane-backend/internal/types"
)

// GeneralRoomExternalId identifies the singleton room every user is
// enrolled into.
const GeneralRoomExternalId = "general"

var (
	ErrRoomNotPublic    = errors.New("room is not public")
	ErrAlreadyMember    = errors.New("user is already a member")
	ErrNotMember        = errors.New("user is not a member")
	ErrOwnerCannotLeave = errors.New("room owner cannot leave")
	ErrInviteResponded  = errors.New("invite already responded to")
	ErrNotInvitee       = errors.New("invite belongs to another user")
	ErrPermissionDenied = errors.New("permission denied")
	ErrSelfDirectChat   = errors.New("cannot create direct chat with yourself")
)

// Service enforces the durable membership invariants over the
// repository: owner never leaves, invites are terminal once responded,
// direct rooms hold exactly two members, and the general room is a
// singleton every user joins.
type Service struct {
	db  database.EdupaneRepository
	log *log.Logger
}

func NewService(db database.EdupaneRepository, logger *log.Logger) *Service {
	return &Service{db: db, log: logger}
}

func (s *Service) CreateRoom(ownerId int, name string, roomType types.RoomType, defaultRole types.Role) (types.Room, error) {
	if !defaultRole.Valid() {
		defaultRole = types.RoleStudent
	}

	sid, err := shortid.Generate()
	if err != nil {
		return types.Room{}, fmt.Errorf("generate room id: %w", err)
	}

	owner, err := s.db.GetAccountById(ownerId)
	if err != nil {
		return types.Room{}, fmt.Errorf("get owner: %w", err)
	}

	ownerRole := types.RoleStudent
	if owner.IsTeacher {
		ownerRole = types.RoleAdmin
	}

	room, err := s.db.CreateRoom(database.CreateRoomParams{
		ExternalId:  sid,
		Name:        name,
		RoomType:    string(roomType),
		OwnerId:     ownerId,
		DefaultRole: string(defaultRole),
		OwnerRole:   string(ownerRole),
	})
	if err != nil {
		return types.Room{}, err
	}

	return toRoom(room), nil
}

// JoinRoom adds userId to a public room with the room's default role.
func (s *Service) JoinRoom(userId, roomId int) (types.Membership, error) {
	room, err := s.db.GetRoomById(roomId)
	if err != nil {
		return types.Membership{}, fmt.Errorf("get room: %w", err)
	}

	if room.RoomType != string(types.RoomPublic) {
		return types.Membership{}, ErrRoomNotPublic
	}

	if s.db.MembershipExists(userId, roomId) {
		return types.Membership{}, ErrAlreadyMember
	}

	membership, err := s.db.CreateMembership(userId, roomId, room.DefaultRole)
	if err != nil {
		return types.Membership{}, err
	}

	return toMembership(membership), nil
}

func (s *Service) LeaveRoom(userId, roomId int) error {
	room, err := s.db.GetRoomById(roomId)
	if err != nil {
		return fmt.Errorf("get room: %w", err)
	}

	if room.OwnerId == userId {
		return ErrOwnerCannotLeave
	}

	if !s.db.MembershipExists(userId, roomId) {
		return ErrNotMember
	}

	return s.db.DeleteMembership(userId, roomId)
}

// InviteUser creates a pending invite. Only the room owner or an admin
// member may invite.
func (s *Service) InviteUser(roomId, inviterId, invitedId int) (types.Invite, error) {
	room, err := s.db.GetRoomById(roomId)
	if err != nil {
		return types.Invite{}, fmt.Errorf("get room: %w", err)
	}

	if room.OwnerId != inviterId {
		membership, err := s.db.GetMembership(inviterId, roomId)
		if err != nil || !types.Role(membership.Role).AtLeast(types.RoleAdmin) {
			return types.Invite{}, ErrPermissionDenied
		}
	}

	if s.db.MembershipExists(invitedId, roomId) {
		return types.Invite{}, ErrAlreadyMember
	}

	// the (room, invited) pair is unique; reuse an existing invite
	if invite, err := s.db.GetInvite(roomId, invitedId); err == nil {
		return toInvite(invite), nil
	}

	invite, err := s.db.CreateInvite(roomId, inviterId, invitedId)
	if err != nil {
		return types.Invite{}, err
	}

	return toInvite(invite), nil
}

// AcceptInvite marks the invite accepted and creates the membership.
// The pending state is terminal once responded.
func (s *Service) AcceptInvite(inviteId, userId int) (types.Membership, error) {
	invite, err := s.db.GetInviteById(inviteId)
	if err != nil {
		return types.Membership{}, fmt.Errorf("get invite: %w", err)
	}

	if invite.InvitedId != userId {
		return types.Membership{}, ErrNotInvitee
	}
	if invite.Status != string(types.InvitePending) {
		return types.Membership{}, ErrInviteResponded
	}

	user, err := s.db.GetAccountById(userId)
	if err != nil {
		return types.Membership{}, fmt.Errorf("get account: %w", err)
	}

	role := types.RoleStudent
	if user.IsTeacher {
		role = types.RoleTeacher
	}

	membership, err := s.db.CreateMembership(userId, invite.RoomId, string(role))
	if err != nil {
		return types.Membership{}, fmt.Errorf("create membership: %w", err)
	}

	if _, err := s.db.UpdateInviteStatus(inviteId, string(types.InviteAccepted), time.Now().UTC()); err != nil {
		return types.Membership{}, fmt.Errorf("update invite: %w", err)
	}

	return toMembership(membership), nil
}

func (s *Service) DeclineInvite(inviteId, userId int) error {
	invite, err := s.db.GetInviteById(inviteId)
	if err != nil {
		return fmt.Errorf("get invite: %w", err)
	}

	if invite.InvitedId != userId {
		return ErrNotInvitee
	}
	if invite.Status != string(types.InvitePending) {
		return ErrInviteResponded
	}

	_, err = s.db.UpdateInviteStatus(inviteId, string(types.InviteRejected), time.Now().UTC())
	return err
}

// DirectRoom returns the direct room between the two users, creating
// it with exactly two memberships when none exists.
func (s *Service) DirectRoom(userId, otherId int) (types.Room, error) {
	if userId == otherId {
		return types.Room{}, ErrSelfDirectChat
	}

	if room, err := s.db.FindDirectRoom(userId, otherId); err == nil {
		return toRoom(room), nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return types.Room{}, fmt.Errorf("find direct room: %w", err)
	}

	user, err := s.db.GetAccountById(userId)
	if err != nil {
		return types.Room{}, fmt.Errorf("get account: %w", err)
	}
	other, err := s.db.GetAccountById(otherId)
	if err != nil {
		return types.Room{}, fmt.Errorf("get account: %w", err)
	}

	sid, err := shortid.Generate()
	if err != nil {
		return types.Room{}, fmt.Errorf("generate room id: %w", err)
	}

	room, err := s.db.CreateRoom(database.CreateRoomParams{
		ExternalId:  sid,
		Name:        fmt.Sprintf("Direct Chat: %s & %s", user.Username, other.Username),
		RoomType:    string(types.RoomDirect),
		OwnerId:     userId,
		DefaultRole: string(types.RoleStudent),
		OwnerRole:   string(memberRole(user)),
	})
	if err != nil {
		return types.Room{}, fmt.Errorf("create direct room: %w", err)
	}

	if _, err := s.db.CreateMembership(otherId, room.Id, string(memberRole(other))); err != nil {
		return types.Room{}, fmt.Errorf("add second member: %w", err)
	}

	return toRoom(room), nil
}

// EnsureGeneralRoom creates the general room once, owned by ownerId.
// Safe to call at every startup.
func (s *Service) EnsureGeneralRoom(ownerId int) (types.Room, error) {
	room, err := s.db.GetRoomByExternalId(GeneralRoomExternalId)
	if err == nil {
		return toRoom(room), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return types.Room{}, fmt.Errorf("get general room: %w", err)
	}

	s.log.Println("creating general room")
	room, err = s.db.CreateRoom(database.CreateRoomParams{
		ExternalId:  GeneralRoomExternalId,
		Name:        "General",
		RoomType:    string(types.RoomPublic),
		OwnerId:     ownerId,
		DefaultRole: string(types.RoleStudent),
		OwnerRole:   string(types.RoleAdmin),
	})
	if err != nil {
		return types.Room{}, err
	}

	return toRoom(room), nil
}

// EnrollInGeneral adds the user to the general room, chosen by the
// account-creation hook of the identity service.
func (s *Service) EnrollInGeneral(userId int) error {
	room, err := s.db.GetRoomByExternalId(GeneralRoomExternalId)
	if err != nil {
		return fmt.Errorf("get general room: %w", err)
	}

	if s.db.MembershipExists(userId, room.Id) {
		return nil
	}

	user, err := s.db.GetAccountById(userId)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}

	_, err = s.db.CreateMembership(userId, room.Id, string(memberRole(user)))
	return err
}

func memberRole(a database.Account) types.Role {
	if a.IsTeacher {
		return types.RoleTeacher
	}
	return types.RoleStudent
}

func toRoom(r database.Room) types.Room {
	return types.Room{
		Id:          r.Id,
		ExternalId:  r.ExternalId,
		Name:        r.Name,
		Type:        types.RoomType(r.RoomType),
		OwnerId:     r.OwnerId,
		DefaultRole: types.Role(r.DefaultRole),
		CreatedAt:   r.CreatedAt,
	}
}

func toMembership(m database.Membership) types.Membership {
	return types.Membership{
		Id:       m.Id,
		UserId:   m.UserId,
		RoomId:   m.RoomId,
		Role:     types.Role(m.Role),
		JoinedAt: m.JoinedAt,
	}
}

func toInvite(i database.Invite) types.Invite {
	return types.Invite{
		Id:        i.Id,
		RoomId:    i.RoomId,
		InviterId: i.InviterId,
		InvitedId: i.InvitedId,
		Status:    types.InviteStatus(i.Status),
		CreatedAt: i.CreatedAt,
	}
}
