package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open opens a PostgreSQL database using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL migrations for the ping schema on PostgreSQL.
// The unique direct_key and the partial one-owner index enforce the
// get-or-create and single-OWNER invariants at the database level.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id              BIGSERIAL    PRIMARY KEY,
			email           VARCHAR(100) UNIQUE NOT NULL,
			name            VARCHAR(100) NOT NULL,
			avatar_url      TEXT,
			hashed_password VARCHAR(255),
			created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS sessions (
			token      VARCHAR(64) PRIMARY KEY,
			user_id    BIGINT      NOT NULL REFERENCES users(id),
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS friendships (
			user1_id     BIGINT      NOT NULL REFERENCES users(id),
			user2_id     BIGINT      NOT NULL REFERENCES users(id),
			status       VARCHAR(10) NOT NULL,
			requester_id BIGINT      NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user1_id, user2_id),
			CHECK (user1_id < user2_id)
		)`,

		`CREATE TABLE IF NOT EXISTS blacklist (
			blocker_id BIGINT      NOT NULL REFERENCES users(id),
			blocked_id BIGINT      NOT NULL REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (blocker_id, blocked_id)
		)`,

		`CREATE TABLE IF NOT EXISTS conversations (
			id                    BIGSERIAL    PRIMARY KEY,
			type                  VARCHAR(10)  NOT NULL,
			name                  VARCHAR(100),
			direct_key            VARCHAR(50)  UNIQUE,
			pinned_at             TIMESTAMPTZ,
			only_owner_can_invite BOOLEAN      NOT NULL DEFAULT FALSE,
			only_owner_can_kick   BOOLEAN      NOT NULL DEFAULT TRUE,
			only_owner_can_edit   BOOLEAN      NOT NULL DEFAULT FALSE,
			created_at            TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at            TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS conversation_participants (
			conversation_id BIGINT      NOT NULL REFERENCES conversations(id),
			user_id         BIGINT      NOT NULL REFERENCES users(id),
			role            VARCHAR(10) NOT NULL,
			joined_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, conversation_id)
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_participants_one_owner
			ON conversation_participants(conversation_id) WHERE role = 'OWNER'`,

		`CREATE TABLE IF NOT EXISTS messages (
			id              BIGSERIAL    PRIMARY KEY,
			conversation_id BIGINT       NOT NULL REFERENCES conversations(id),
			sender_id       BIGINT       NOT NULL REFERENCES users(id),
			content         TEXT         NOT NULL,
			message_type    VARCHAR(10)  NOT NULL DEFAULT 'TEXT',
			status          VARCHAR(10)  NOT NULL DEFAULT 'SENT',
			created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_friendships_user2 ON friendships(user2_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conv_participants_user ON conversation_participants(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conv_participants_conv ON conversation_participants(conversation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conv_created ON messages(conversation_id, created_at DESC, id DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
