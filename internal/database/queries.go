package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const defaultMessageLimit = 50

func (db *PgEdupaneRepository) GetAccountById(id int) (Account, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, is_teacher, created_at FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		id,
	)

	var a Account
	err := row.Scan(
		&a.Id,
		&a.Username,
		&a.IsTeacher,
		&a.CreatedAt,
	)

	return a, err
}

func (db *PgEdupaneRepository) GetRoomById(id int) (Room, error) {
	return db.scanRoom(db.conn.QueryRow(
		"SELECT id, external_id, name, room_type, owner_id, default_role, created_at "+
			"FROM rooms WHERE id = $1 LIMIT 1",
		id,
	))
}

func (db *PgEdupaneRepository) GetRoomByExternalId(externalId string) (Room, error) {
	return db.scanRoom(db.conn.QueryRow(
		"SELECT id, external_id, name, room_type, owner_id, default_role, created_at "+
			"FROM rooms WHERE external_id = $1 LIMIT 1",
		externalId,
	))
}

func (db *PgEdupaneRepository) scanRoom(row *sql.Row) (Room, error) {
	var room Room
	err := row.Scan(
		&room.Id,
		&room.ExternalId,
		&room.Name,
		&room.RoomType,
		&room.OwnerId,
		&room.DefaultRole,
		&room.CreatedAt,
	)

	return room, err
}

func (db *PgEdupaneRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Room{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res := tx.QueryRow(
		"INSERT INTO rooms (external_id, name, room_type, owner_id, default_role, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) "+
			"RETURNING id, external_id, name, room_type, owner_id, default_role, created_at",
		params.ExternalId,
		params.Name,
		params.RoomType,
		params.OwnerId,
		params.DefaultRole,
		time.Now().UTC(),
	)

	var room Room
	err = res.Scan(
		&room.Id,
		&room.ExternalId,
		&room.Name,
		&room.RoomType,
		&room.OwnerId,
		&room.DefaultRole,
		&room.CreatedAt,
	)
	if err != nil {
		return Room{}, err
	}

	_, err = tx.Exec(
		"INSERT INTO memberships (user_id, room_id, role, joined_at) VALUES ($1, $2, $3, $4)",
		params.OwnerId,
		room.Id,
		params.OwnerRole,
		time.Now().UTC(),
	)
	if err != nil {
		return Room{}, err
	}

	if err = tx.Commit(); err != nil {
		return Room{}, err
	}

	return room, nil
}

func (db *PgEdupaneRepository) FindDirectRoom(userA, userB int) (Room, error) {
	return db.scanRoom(db.conn.QueryRow(
		"SELECT r.id, r.external_id, r.name, r.room_type, r.owner_id, r.default_role, r.created_at "+
			"FROM rooms r "+
			"JOIN memberships ma ON ma.room_id = r.id AND ma.user_id = $1 "+
			"JOIN memberships mb ON mb.room_id = r.id AND mb.user_id = $2 "+
			"WHERE r.room_type = 'direct' LIMIT 1",
		userA,
		userB,
	))
}

func (db *PgEdupaneRepository) GetRoomParticipantIds(roomId int) ([]int, error) {
	rows, err := db.conn.Query(
		"SELECT user_id FROM memberships WHERE room_id = $1",
		roomId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (db *PgEdupaneRepository) GetMembership(userId, roomId int) (Membership, error) {
	row := db.conn.QueryRow(
		"SELECT id, user_id, room_id, role, joined_at FROM memberships "+
			"WHERE user_id = $1 AND room_id = $2 LIMIT 1",
		userId,
		roomId,
	)

	var m Membership
	err := row.Scan(&m.Id, &m.UserId, &m.RoomId, &m.Role, &m.JoinedAt)

	return m, err
}

func (db *PgEdupaneRepository) MembershipExists(userId, roomId int) bool {
	_, err := db.GetMembership(userId, roomId)
	return err == nil
}

func (db *PgEdupaneRepository) CreateMembership(userId, roomId int, role string) (Membership, error) {
	res := db.conn.QueryRow(
		"INSERT INTO memberships (user_id, room_id, role, joined_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, user_id, room_id, role, joined_at",
		userId,
		roomId,
		role,
		time.Now().UTC(),
	)

	var m Membership
	err := res.Scan(&m.Id, &m.UserId, &m.RoomId, &m.Role, &m.JoinedAt)

	return m, err
}

func (db *PgEdupaneRepository) DeleteMembership(userId, roomId int) error {
	_, err := db.conn.Exec(
		"DELETE FROM memberships WHERE user_id = $1 AND room_id = $2",
		userId,
		roomId,
	)

	return err
}

func (db *PgEdupaneRepository) GetInviteById(id int) (Invite, error) {
	return db.scanInvite(db.conn.QueryRow(
		"SELECT id, room_id, inviter_id, invited_id, status, created_at, responded_at "+
			"FROM chat_invites WHERE id = $1 LIMIT 1",
		id,
	))
}

func (db *PgEdupaneRepository) GetInvite(roomId, invitedId int) (Invite, error) {
	return db.scanInvite(db.conn.QueryRow(
		"SELECT id, room_id, inviter_id, invited_id, status, created_at, responded_at "+
			"FROM chat_invites WHERE room_id = $1 AND invited_id = $2 LIMIT 1",
		roomId,
		invitedId,
	))
}

func (db *PgEdupaneRepository) CreateInvite(roomId, inviterId, invitedId int) (Invite, error) {
	return db.scanInvite(db.conn.QueryRow(
		"INSERT INTO chat_invites (room_id, inviter_id, invited_id, status, created_at) "+
			"VALUES ($1, $2, $3, 'pending', $4) "+
			"RETURNING id, room_id, inviter_id, invited_id, status, created_at, responded_at",
		roomId,
		inviterId,
		invitedId,
		time.Now().UTC(),
	))
}

func (db *PgEdupaneRepository) UpdateInviteStatus(id int, status string, respondedAt time.Time) (Invite, error) {
	return db.scanInvite(db.conn.QueryRow(
		"UPDATE chat_invites SET status = $2, responded_at = $3 WHERE id = $1 "+
			"RETURNING id, room_id, inviter_id, invited_id, status, created_at, responded_at",
		id,
		status,
		respondedAt,
	))
}

func (db *PgEdupaneRepository) scanInvite(row *sql.Row) (Invite, error) {
	var inv Invite
	err := row.Scan(
		&inv.Id,
		&inv.RoomId,
		&inv.InviterId,
		&inv.InvitedId,
		&inv.Status,
		&inv.CreatedAt,
		&inv.RespondedAt,
	)

	return inv, err
}

func (db *PgEdupaneRepository) CreateMessage(roomId, senderId int, content string) (Message, error) {
	res := db.conn.QueryRow(
		"INSERT INTO messages (room_id, sender_id, content, created_at) "+
			"VALUES ($1, $2, $3, now()) RETURNING id, room_id, sender_id, content, created_at",
		roomId,
		senderId,
		content,
	)

	var msg Message
	err := res.Scan(&msg.Id, &msg.RoomId, &msg.SenderId, &msg.Content, &msg.CreatedAt)
	if err != nil {
		// a room deleted mid-session surfaces as the FK violation
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "messages_room_id_fkey" {
			return Message{}, fmt.Errorf("room %d: %w", roomId, sql.ErrNoRows)
		}
		return Message{}, err
	}

	sender, err := db.GetAccountById(senderId)
	if err == nil {
		msg.Sender = sender.Username
	}

	return msg, nil
}

func (db *PgEdupaneRepository) ListMessagesBefore(roomId int, before *time.Time, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}

	query := "SELECT m.id, m.room_id, m.sender_id, a.username, m.content, m.created_at " +
		"FROM messages m LEFT JOIN accounts a ON m.sender_id = a.id " +
		"WHERE m.room_id = $1 "
	args := []any{roomId}

	if before != nil {
		query += fmt.Sprintf("AND m.created_at < $%d ", len(args)+1)
		args = append(args, *before)
	}

	query += fmt.Sprintf("ORDER BY m.created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]Message, 0, limit)
	for rows.Next() {
		var msg Message
		var username sql.NullString
		if err := rows.Scan(&msg.Id, &msg.RoomId, &msg.SenderId, &username, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}

		msg.Sender = username.String
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
