package database

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type MockEdupaneRepository struct {
	mock.Mock
}

func (m *MockEdupaneRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockEdupaneRepository) GetAccountById(id int) (Account, error) {
	args := m.Called(id)
	return args.Get(0).(Account), args.Error(1)
}
func (m *MockEdupaneRepository) GetRoomById(id int) (Room, error) {
	args := m.Called(id)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockEdupaneRepository) GetRoomByExternalId(externalId string) (Room, error) {
	args := m.Called(externalId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockEdupaneRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockEdupaneRepository) FindDirectRoom(userA, userB int) (Room, error) {
	args := m.Called(userA, userB)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockEdupaneRepository) GetRoomParticipantIds(roomId int) ([]int, error) {
	args := m.Called(roomId)
	return args.Get(0).([]int), args.Error(1)
}
func (m *MockEdupaneRepository) GetMembership(userId, roomId int) (Membership, error) {
	args := m.Called(userId, roomId)
	return args.Get(0).(Membership), args.Error(1)
}
func (m *MockEdupaneRepository) MembershipExists(userId, roomId int) bool {
	args := m.Called(userId, roomId)
	return args.Bool(0)
}
func (m *MockEdupaneRepository) CreateMembership(userId, roomId int, role string) (Membership, error) {
	args := m.Called(userId, roomId, role)
	return args.Get(0).(Membership), args.Error(1)
}
func (m *MockEdupaneRepository) DeleteMembership(userId, roomId int) error {
	args := m.Called(userId, roomId)
	return args.Error(0)
}
func (m *MockEdupaneRepository) GetInviteById(id int) (Invite, error) {
	args := m.Called(id)
	return args.Get(0).(Invite), args.Error(1)
}
func (m *MockEdupaneRepository) GetInvite(roomId, invitedId int) (Invite, error) {
	args := m.Called(roomId, invitedId)
	return args.Get(0).(Invite), args.Error(1)
}
func (m *MockEdupaneRepository) CreateInvite(roomId, inviterId, invitedId int) (Invite, error) {
	args := m.Called(roomId, inviterId, invitedId)
	return args.Get(0).(Invite), args.Error(1)
}
func (m *MockEdupaneRepository) UpdateInviteStatus(id int, status string, respondedAt time.Time) (Invite, error) {
	args := m.Called(id, status, respondedAt)
	return args.Get(0).(Invite), args.Error(1)
}
func (m *MockEdupaneRepository) CreateMessage(roomId, senderId int, content string) (Message, error) {
	args := m.Called(roomId, senderId, content)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockEdupaneRepository) ListMessagesBefore(roomId int, before *time.Time, limit int) ([]Message, error) {
	args := m.Called(roomId, before, limit)
	return args.Get(0).([]Message), args.Error(1)
}
