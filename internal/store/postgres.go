package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"
)

// Postgres implements all store interfaces over database/sql with the
// lib/pq driver. Each method is one statement, so each unit of work is
// its own implicit transaction.
type Postgres struct {
	db *sql.DB
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Close closes the underlying pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// --- UserStore ---

func (p *Postgres) FindUser(ctx context.Context, id int64) (User, error) {
	var u User
	var model string
	err := p.db.QueryRowContext(ctx, `
		SELECT id, email, ai_model FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &model)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.AIModel = AIModel(model)
	return u, nil
}

func (p *Postgres) SetAIModel(ctx context.Context, id int64, model AIModel) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE users SET ai_model = $2 WHERE id = $1
	`, id, string(model))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- SessionStore ---

func (p *Postgres) FindByChatUser(ctx context.Context, chatUserID string, platform Platform) (Session, error) {
	var s Session
	var pf string
	err := p.db.QueryRowContext(ctx, `
		SELECT id, owner_id, chat_user_id, platform, started_at, last_active_at
		FROM sessions
		WHERE chat_user_id = $1 AND platform = $2
	`, chatUserID, string(platform)).Scan(&s.ID, &s.OwnerID, &s.ChatUserID, &pf, &s.StartedAt, &s.LastActiveAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	s.Platform = Platform(pf)
	return s, nil
}

func (p *Postgres) Create(ctx context.Context, s Session) (Session, error) {
	now := time.Now()
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO sessions (owner_id, chat_user_id, platform, started_at, last_active_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id
	`, s.OwnerID, s.ChatUserID, string(s.Platform), now).Scan(&s.ID)
	if err != nil {
		return Session{}, err
	}
	s.StartedAt = now
	s.LastActiveAt = now
	return s, nil
}

func (p *Postgres) Touch(ctx context.Context, id int64, at time.Time) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE sessions SET last_active_at = $2 WHERE id = $1
	`, id, at)
	return err
}

func (p *Postgres) ListByOwner(ctx context.Context, ownerID int64, platform Platform) ([]Session, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, owner_id, chat_user_id, platform, started_at, last_active_at
		FROM sessions
		WHERE owner_id = $1 AND platform = $2
		ORDER BY started_at ASC
	`, ownerID, string(platform))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		var pf string
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.ChatUserID, &pf, &s.StartedAt, &s.LastActiveAt); err != nil {
			return nil, err
		}
		s.Platform = Platform(pf)
		out = append(out, s)
	}
	return out, rows.Err()
}

// --- MessageStore ---

func (p *Postgres) Append(ctx context.Context, sessionID int64, text string, sender Sender) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO messages (session_id, sender, text)
		VALUES ($1, $2, $3)
	`, sessionID, string(sender), text)
	return err
}

func (p *Postgres) BySession(ctx context.Context, sessionID int64) ([]Message, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, session_id, sender, text, created_at
		FROM messages
		WHERE session_id = $1
		ORDER BY created_at ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var sender string
		if err := rows.Scan(&m.ID, &m.SessionID, &sender, &m.Text, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Sender = Sender(sender)
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- KnowledgeStore ---

func (p *Postgres) ContentByOwner(ctx context.Context, ownerID int64) (string, error) {
	var content string
	err := p.db.QueryRowContext(ctx, `
		SELECT content FROM bot_knowledge WHERE owner_id = $1
	`, ownerID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return content, nil
}

// --- PlatformStore ---

func (p *Postgres) FindByOwner(ctx context.Context, ownerID int64, platform Platform) (PlatformConn, error) {
	var c PlatformConn
	var pf, status string
	err := p.db.QueryRowContext(ctx, `
		SELECT owner_id, platform, status, COALESCE(api_token, '')
		FROM platforms
		WHERE owner_id = $1 AND platform = $2
	`, ownerID, string(platform)).Scan(&c.OwnerID, &pf, &status, &c.APIToken)
	if errors.Is(err, sql.ErrNoRows) {
		return PlatformConn{}, ErrNotFound
	}
	if err != nil {
		return PlatformConn{}, err
	}
	c.Platform = Platform(pf)
	c.Status = PlatformStatus(status)
	return c, nil
}

func (p *Postgres) Save(ctx context.Context, conn PlatformConn) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO platforms (owner_id, platform, status, api_token)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, platform)
		DO UPDATE SET status = EXCLUDED.status, api_token = EXCLUDED.api_token
	`, conn.OwnerID, string(conn.Platform), string(conn.Status), conn.APIToken)
	return err
}

func (p *Postgres) SetStatus(ctx context.Context, ownerID int64, platform Platform, status PlatformStatus) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE platforms SET status = $3 WHERE owner_id = $1 AND platform = $2
	`, ownerID, string(platform), string(status))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
