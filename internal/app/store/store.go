package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VisalRazaZaidi/SmartComms/internal/app/chat"
)

// Store runs queries on the PostgreSQL pool. It satisfies chat.MessageStore,
// acting as the durable side of the at-least-once-delivered-live,
// at-most-once-durable tradeoff the gateway makes.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps a connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// CreateUser inserts an account row.
func (s *Store) CreateUser(ctx context.Context, u User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, username, password_hash, name, avatar_url)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Username, u.PasswordHash, u.Name, u.AvatarURL,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByUsername loads an account by its login handle.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, name, avatar_url, created_at
		 FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name, &u.AvatarURL, &u.CreatedAt)
	if err != nil {
		return User{}, wrapNotFound(err)
	}
	return u, nil
}

// GetUserByID loads an account by id.
func (s *Store) GetUserByID(ctx context.Context, id string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, name, avatar_url, created_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name, &u.AvatarURL, &u.CreatedAt)
	if err != nil {
		return User{}, wrapNotFound(err)
	}
	return u, nil
}

// UpdateUserAvatar stores a new avatar URL for the account.
func (s *Store) UpdateUserAvatar(ctx context.Context, userID, avatarURL string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET avatar_url = $2 WHERE id = $1`,
		userID, avatarURL,
	)
	if err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateChat inserts a chat and its membership rows in one transaction.
func (s *Store) CreateChat(ctx context.Context, c Chat) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("create chat: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO chats (id, name, group_chat, creator_id) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.GroupChat, c.CreatorID,
	)
	if err != nil {
		return fmt.Errorf("create chat: %w", err)
	}

	for _, memberID := range c.Members {
		_, err = tx.Exec(ctx,
			`INSERT INTO chat_members (chat_id, user_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			c.ID, memberID,
		)
		if err != nil {
			return fmt.Errorf("create chat: add member: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetChat loads a chat with its membership.
func (s *Store) GetChat(ctx context.Context, chatID string) (Chat, error) {
	var c Chat
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, group_chat, creator_id, created_at FROM chats WHERE id = $1`,
		chatID,
	).Scan(&c.ID, &c.Name, &c.GroupChat, &c.CreatorID, &c.CreatedAt)
	if err != nil {
		return Chat{}, wrapNotFound(err)
	}

	members, err := s.ChatMembers(ctx, chatID)
	if err != nil {
		return Chat{}, err
	}
	c.Members = members

	return c, nil
}

// ChatMembers returns the ordered membership of a chat. This is the
// authoritative list the client-supplied members payload should agree with.
func (s *Store) ChatMembers(ctx context.Context, chatID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id FROM chat_members WHERE chat_id = $1 ORDER BY joined_at`,
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("chat members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("chat members: scan: %w", err)
		}
		members = append(members, userID)
	}

	return members, rows.Err()
}

// IsChatMember reports whether the user belongs to the chat.
func (s *Store) IsChatMember(ctx context.Context, chatID, userID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM chat_members WHERE chat_id = $1 AND user_id = $2)`,
		chatID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("is chat member: %w", err)
	}
	return exists, nil
}

// ChatsForUser lists the chats the user belongs to, newest first.
func (s *Store) ChatsForUser(ctx context.Context, userID string) ([]Chat, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.id, c.name, c.group_chat, c.creator_id, c.created_at
		 FROM chats c
		 JOIN chat_members m ON m.chat_id = c.id
		 WHERE m.user_id = $1
		 ORDER BY c.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("chats for user: %w", err)
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.ID, &c.Name, &c.GroupChat, &c.CreatorID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("chats for user: scan: %w", err)
		}
		chats = append(chats, c)
	}

	return chats, rows.Err()
}

// CreateMessage stores the durable form of a message. Implements
// chat.MessageStore; the gateway calls it after the live broadcast, detached.
func (s *Store) CreateMessage(ctx context.Context, msg chat.DurableMessage) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (id, chat_id, sender_id, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.Chat, msg.Sender, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// Messages returns up to limit messages for a chat, oldest first.
func (s *Store) Messages(ctx context.Context, chatID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, chat_id, sender_id, content, created_at
		 FROM (
			SELECT id, chat_id, sender_id, content, created_at
			FROM messages WHERE chat_id = $1
			ORDER BY created_at DESC LIMIT $2
		 ) latest
		 ORDER BY created_at ASC`,
		chatID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("messages: scan: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}
