package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"social-publisher/domain/model"
)

// AccountRepository implements the connected account registry on PostgreSQL.
type AccountRepository struct{ db *sql.DB }

func NewAccountRepository(db *sql.DB) *AccountRepository { return &AccountRepository{db: db} }

const accountColumns = `id, user_id, platform, platform_account_id, username, display_name, avatar_url,
	access_token, refresh_token, token_type, expires_at, scopes, metadata, is_active, connected_at, created_at, updated_at`

func (r *AccountRepository) Upsert(ctx context.Context, a *model.ConnectedAccount) (*model.ConnectedAccount, error) {
	now := time.Now().UTC()
	if a.ConnectedAt.IsZero() {
		a.ConnectedAt = now
	}
	meta, err := json.Marshal(a.Metadata)
	if err != nil {
		return nil, err
	}
	q := `INSERT INTO connected_accounts (user_id, platform, platform_account_id, username, display_name, avatar_url,
			access_token, refresh_token, token_type, expires_at, scopes, metadata, is_active, connected_at, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,TRUE,$13,$14,$14)
		  ON CONFLICT (user_id, platform) DO UPDATE SET
			platform_account_id=EXCLUDED.platform_account_id,
			username=EXCLUDED.username,
			display_name=EXCLUDED.display_name,
			avatar_url=EXCLUDED.avatar_url,
			access_token=EXCLUDED.access_token,
			refresh_token=EXCLUDED.refresh_token,
			token_type=EXCLUDED.token_type,
			expires_at=EXCLUDED.expires_at,
			scopes=EXCLUDED.scopes,
			metadata=EXCLUDED.metadata,
			is_active=TRUE,
			connected_at=EXCLUDED.connected_at,
			updated_at=EXCLUDED.updated_at
		  RETURNING ` + accountColumns
	row := r.db.QueryRowContext(ctx, q,
		a.UserID, a.Platform, a.PlatformAccountID, a.Username, a.DisplayName, a.AvatarURL,
		a.Credential.AccessToken, a.Credential.RefreshToken, a.Credential.TokenType, a.Credential.ExpiresAt,
		a.Scopes, string(meta), a.ConnectedAt, now)
	return scanAccount(row)
}

func (r *AccountRepository) GetByID(ctx context.Context, accountID int64) (*model.ConnectedAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM connected_accounts WHERE id=$1`, accountID)
	return scanAccount(row)
}

func (r *AccountRepository) ListByUser(ctx context.Context, userID string) ([]*model.ConnectedAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM connected_accounts WHERE user_id=$1 AND is_active=TRUE ORDER BY connected_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*model.ConnectedAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// UpdateCredential atomically replaces the stored credential; used after a refresh.
func (r *AccountRepository) UpdateCredential(ctx context.Context, accountID int64, cred model.Credential) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE connected_accounts SET access_token=$1, refresh_token=$2, token_type=$3, expires_at=$4, updated_at=$5 WHERE id=$6`,
		cred.AccessToken, cred.RefreshToken, cred.TokenType, cred.ExpiresAt, time.Now().UTC(), accountID)
	return err
}

func (r *AccountRepository) Deactivate(ctx context.Context, accountID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE connected_accounts SET is_active=FALSE, updated_at=$1 WHERE id=$2`, time.Now().UTC(), accountID)
	return err
}

func (r *AccountRepository) Delete(ctx context.Context, accountID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM connected_accounts WHERE id=$1`, accountID)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*model.ConnectedAccount, error) {
	a := &model.ConnectedAccount{}
	var (
		refreshToken, tokenType, scopes, meta sql.NullString
		expiresAt                             sql.NullTime
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Platform, &a.PlatformAccountID, &a.Username, &a.DisplayName, &a.AvatarURL,
		&a.Credential.AccessToken, &refreshToken, &tokenType, &expiresAt, &scopes, &meta,
		&a.IsActive, &a.ConnectedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if refreshToken.Valid {
		a.Credential.RefreshToken = refreshToken.String
	}
	if tokenType.Valid {
		a.Credential.TokenType = tokenType.String
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		a.Credential.ExpiresAt = &t
	}
	if scopes.Valid {
		a.Scopes = scopes.String
	}
	if meta.Valid && meta.String != "" {
		_ = json.Unmarshal([]byte(meta.String), &a.Metadata)
	}
	return a, nil
}
