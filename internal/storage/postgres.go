package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NoahSmiley/fluxchat/internal/domain"
)

// PGStore implements Store against Postgres through a pgx pool.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

func (s *PGStore) Close() {
	s.pool.Close()
}

func (s *PGStore) SaveMessage(ctx context.Context, m MessageRow) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (id, channel_id, user_id, display_name, content, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.ChannelID, m.UserID, m.DisplayName, m.Content, m.CreatedAt)
	return err
}

func (s *PGStore) IndexMessage(ctx context.Context, id domain.MessageID, content string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO message_search (message_id, ts) VALUES ($1, to_tsvector('simple', $2))`,
		id, content)
	return err
}

func (s *PGStore) Message(ctx context.Context, id domain.MessageID) (MessageRow, error) {
	var m MessageRow
	err := s.pool.QueryRow(ctx,
		`SELECT id, channel_id, user_id, display_name, content, created_at, edited_at
		 FROM messages WHERE id = $1`,
		id).Scan(&m.ID, &m.ChannelID, &m.UserID, &m.DisplayName, &m.Content, &m.CreatedAt, &m.EditedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return MessageRow{}, ErrNotFound
	}
	return m, err
}

func (s *PGStore) UpdateMessage(ctx context.Context, id domain.MessageID, content string, editedAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE messages SET content = $2, edited_at = $3 WHERE id = $1`,
		id, content, editedAt)
	return err
}

func (s *PGStore) ReindexMessage(ctx context.Context, id domain.MessageID, content string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE message_search SET ts = to_tsvector('simple', $2) WHERE message_id = $1`,
		id, content)
	return err
}

func (s *PGStore) DeleteMessageIndex(ctx context.Context, id domain.MessageID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM message_search WHERE message_id = $1`, id)
	return err
}

func (s *PGStore) DeleteMessage(ctx context.Context, id domain.MessageID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	return err
}

func (s *PGStore) LinkAttachments(ctx context.Context, id domain.MessageID, owner domain.UserID, attachmentIDs []string) error {
	if len(attachmentIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE attachments SET message_id = $1
		 WHERE id = ANY($3) AND owner_id = $2 AND message_id IS NULL`,
		id, owner, attachmentIDs)
	return err
}

func (s *PGStore) AddReaction(ctx context.Context, id domain.MessageID, user domain.UserID, emoji string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO reactions (message_id, user_id, emoji) VALUES ($1, $2, $3)
		 ON CONFLICT (message_id, user_id, emoji) DO NOTHING`,
		id, user, emoji)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PGStore) RemoveReaction(ctx context.Context, id domain.MessageID, user domain.UserID, emoji string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM reactions WHERE message_id = $1 AND user_id = $2 AND emoji = $3`,
		id, user, emoji)
	return err
}

func (s *PGStore) SaveDMMessage(ctx context.Context, m DMMessageRow) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO dm_messages (id, dm_channel_id, user_id, ciphertext, mls_epoch, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.DMChannelID, m.UserID, m.Ciphertext, m.MLSEpoch, m.CreatedAt)
	return err
}

func (s *PGStore) DMParticipants(ctx context.Context, dm domain.ChannelID) ([]domain.UserID, error) {
	var a, b domain.UserID
	err := s.pool.QueryRow(ctx,
		`SELECT user_a, user_b FROM dm_channels WHERE id = $1`,
		dm).Scan(&a, &b)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if a == b {
		return []domain.UserID{a}, nil
	}
	return []domain.UserID{a, b}, nil
}

func (s *PGStore) UserStatus(ctx context.Context, user domain.UserID) (domain.Status, error) {
	var raw string
	err := s.pool.QueryRow(ctx,
		`SELECT status_preference FROM users WHERE id = $1`,
		user).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	status, ok := domain.ParseStatus(raw)
	if !ok {
		return domain.StatusOnline, nil
	}
	return status, nil
}

func (s *PGStore) SaveUserStatus(ctx context.Context, user domain.UserID, status domain.Status) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET status_preference = $2 WHERE id = $1`,
		user, status)
	return err
}

func (s *PGStore) ChannelFlags(ctx context.Context, ch domain.ChannelID) (domain.ChannelFlags, error) {
	var f domain.ChannelFlags
	err := s.pool.QueryRow(ctx,
		`SELECT is_room, is_persistent, is_locked, creator_id FROM channels WHERE id = $1`,
		ch).Scan(&f.IsRoom, &f.IsPersistent, &f.IsLocked, &f.CreatorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ChannelFlags{}, ErrNotFound
	}
	return f, err
}

func (s *PGStore) DeleteChannel(ctx context.Context, ch domain.ChannelID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM channels WHERE id = $1`, ch)
	return err
}

func (s *PGStore) CreateRoom(ctx context.Context, ch domain.ChannelID, name string, creator domain.UserID, persistent bool) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO channels (id, name, is_room, is_persistent, is_locked, creator_id)
		 VALUES ($1, $2, TRUE, $3, FALSE, $4)`,
		ch, name, persistent, creator)
	return err
}

func (s *PGStore) SetRoomLocked(ctx context.Context, ch domain.ChannelID, locked bool) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE channels SET is_locked = $2 WHERE id = $1 AND is_room`,
		ch, locked)
	return err
}

func (s *PGStore) KnockRecipients(ctx context.Context, ch domain.ChannelID) ([]domain.UserID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT creator_id FROM channels WHERE id = $1
		 UNION
		 SELECT sa.user_id FROM server_admins sa
		 JOIN channels c ON c.server_id = sa.server_id
		 WHERE c.id = $1 AND sa.role IN ('admin', 'owner')`,
		ch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.UserID
	for rows.Next() {
		var uid domain.UserID
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		out = append(out, uid)
	}
	return out, rows.Err()
}

func (s *PGStore) UpsertServerKey(ctx context.Context, server domain.ServerID, user domain.UserID, encryptedKey string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO server_keys (server_id, user_id, encrypted_key) VALUES ($1, $2, $3)
		 ON CONFLICT (server_id, user_id) DO UPDATE SET encrypted_key = EXCLUDED.encrypted_key`,
		server, user, encryptedKey)
	return err
}

func (s *PGStore) Sound(ctx context.Context, soundID string) (SoundRow, error) {
	var row SoundRow
	err := s.pool.QueryRow(ctx,
		`SELECT s.id, s.name, a.url FROM sounds s JOIN attachments a ON a.id = s.attachment_id
		 WHERE s.id = $1`,
		soundID).Scan(&row.ID, &row.Name, &row.Source)
	if errors.Is(err, pgx.ErrNoRows) {
		return SoundRow{}, ErrNotFound
	}
	return row, err
}

func (s *PGStore) ListeningSession(ctx context.Context, sessionID string) (SessionRow, error) {
	var row SessionRow
	err := s.pool.QueryRow(ctx,
		`SELECT id, channel_id, track_uri, position_ms, playing
		 FROM listening_sessions WHERE id = $1`,
		sessionID).Scan(&row.ID, &row.ChannelID, &row.TrackURI, &row.PositionMS, &row.Playing)
	if errors.Is(err, pgx.ErrNoRows) {
		return SessionRow{}, ErrNotFound
	}
	return row, err
}

func (s *PGStore) SetSessionPlaying(ctx context.Context, sessionID string, playing bool) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE listening_sessions SET playing = $2 WHERE id = $1`,
		sessionID, playing)
	return err
}

func (s *PGStore) SeekSession(ctx context.Context, sessionID string, positionMS int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE listening_sessions SET position_ms = $2 WHERE id = $1`,
		sessionID, positionMS)
	return err
}

func (s *PGStore) SkipSession(ctx context.Context, sessionID string) (string, SessionRow, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", SessionRow{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var next string
	err = tx.QueryRow(ctx,
		`DELETE FROM session_queue
		 WHERE session_id = $1 AND position = (
			SELECT MIN(position) FROM session_queue WHERE session_id = $1
		 )
		 RETURNING track_uri`,
		sessionID).Scan(&next)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", SessionRow{}, ErrNotFound
	}
	if err != nil {
		return "", SessionRow{}, err
	}

	var row SessionRow
	err = tx.QueryRow(ctx,
		`UPDATE listening_sessions SET track_uri = $2, position_ms = 0, playing = TRUE
		 WHERE id = $1
		 RETURNING id, channel_id, track_uri, position_ms, playing`,
		sessionID, next).Scan(&row.ID, &row.ChannelID, &row.TrackURI, &row.PositionMS, &row.Playing)
	if err != nil {
		return "", SessionRow{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", SessionRow{}, err
	}
	return next, row, nil
}

func (s *PGStore) EnqueueTrack(ctx context.Context, sessionID, trackURI string) ([]string, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO session_queue (session_id, position, track_uri)
		 VALUES ($1, (SELECT COALESCE(MAX(position), 0) + 1 FROM session_queue WHERE session_id = $1), $2)`,
		sessionID, trackURI)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT track_uri FROM session_queue WHERE session_id = $1 ORDER BY position`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var queue []string
	for rows.Next() {
		var uri string
		if err := rows.Scan(&uri); err != nil {
			return nil, err
		}
		queue = append(queue, uri)
	}
	return queue, rows.Err()
}

func (s *PGStore) EndSession(ctx context.Context, sessionID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM session_queue WHERE session_id = $1`, sessionID)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `DELETE FROM listening_sessions WHERE id = $1`, sessionID)
	return err
}

func (s *PGStore) PauseChannelSession(ctx context.Context, ch domain.ChannelID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE listening_sessions SET playing = FALSE WHERE channel_id = $1`,
		ch)
	return err
}
