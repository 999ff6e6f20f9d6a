package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"golang.org/x/oauth2"
)

// SessionRepository stores the signed-in [models.Session] in the sessions table.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save replaces the stored session.
func (r *SessionRepository) Save(session *models.Session) error {
	if session == nil || session.User == nil || session.Token == nil {
		return fmt.Errorf("cannot save incomplete session")
	}

	userJSON, err := json.Marshal(session.User)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	query := `
		INSERT INTO sessions (id, user_id, email, access_token, refresh_token, token_type, expiry, user_json, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			email = excluded.email,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expiry = excluded.expiry,
			user_json = excluded.user_json,
			updated_at = excluded.updated_at
	`

	tok := session.Token
	_, err = r.db.Exec(query, session.User.ID, session.User.Email, tok.AccessToken, tok.RefreshToken,
		tok.TokenType, nullTime(tok.Expiry), string(userJSON), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the stored session, or nil when there is none.
func (r *SessionRepository) Load() (*models.Session, error) {
	query := `
		SELECT access_token, refresh_token, token_type, expiry, user_json
		FROM sessions
		WHERE id = 1
	`

	var (
		tok      oauth2.Token
		expiry   sql.NullTime
		userJSON string
	)
	err := r.db.QueryRow(query).Scan(&tok.AccessToken, &tok.RefreshToken, &tok.TokenType, &expiry, &userJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	if expiry.Valid {
		tok.Expiry = expiry.Time
	}

	var user models.User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, fmt.Errorf("failed to decode stored user: %w", err)
	}

	return &models.Session{User: &user, Token: &tok}, nil
}

// Clear removes the stored session.
func (r *SessionRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM sessions"); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
