package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"social-publisher/domain/model"
)

// AccountRepositoryMSSQL is the Azure SQL variant of the account registry,
// used on the production path where the primary database is MSSQL.
type AccountRepositoryMSSQL struct{ db *sql.DB }

func NewAccountRepositoryMSSQL(db *sql.DB) *AccountRepositoryMSSQL {
	return &AccountRepositoryMSSQL{db: db}
}

func (r *AccountRepositoryMSSQL) Upsert(ctx context.Context, a *model.ConnectedAccount) (*model.ConnectedAccount, error) {
	now := time.Now().UTC()
	if a.ConnectedAt.IsZero() {
		a.ConnectedAt = now
	}
	meta, err := json.Marshal(a.Metadata)
	if err != nil {
		return nil, err
	}
	// MSSQL has no ON CONFLICT; UPDATE first, INSERT when nothing matched.
	// The UNIQUE (user_id, platform) index keeps a racing INSERT from
	// producing a second active row.
	res, err := r.db.ExecContext(ctx, `UPDATE connected_accounts SET
			platform_account_id=@p3, username=@p4, display_name=@p5, avatar_url=@p6,
			access_token=@p7, refresh_token=@p8, token_type=@p9, expires_at=@p10,
			scopes=@p11, metadata=@p12, is_active=1, connected_at=@p13, updated_at=@p14
		WHERE user_id=@p1 AND platform=@p2`,
		a.UserID, a.Platform, a.PlatformAccountID, a.Username, a.DisplayName, a.AvatarURL,
		a.Credential.AccessToken, a.Credential.RefreshToken, a.Credential.TokenType, a.Credential.ExpiresAt,
		a.Scopes, string(meta), a.ConnectedAt, now)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err = r.db.ExecContext(ctx, `INSERT INTO connected_accounts
			(user_id, platform, platform_account_id, username, display_name, avatar_url,
			 access_token, refresh_token, token_type, expires_at, scopes, metadata, is_active, connected_at, created_at, updated_at)
			VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p9,@p10,@p11,@p12,1,@p13,@p14,@p14)`,
			a.UserID, a.Platform, a.PlatformAccountID, a.Username, a.DisplayName, a.AvatarURL,
			a.Credential.AccessToken, a.Credential.RefreshToken, a.Credential.TokenType, a.Credential.ExpiresAt,
			a.Scopes, string(meta), a.ConnectedAt, now)
		if err != nil {
			return nil, err
		}
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM connected_accounts WHERE user_id=@p1 AND platform=@p2`,
		a.UserID, a.Platform)
	return scanAccount(row)
}

func (r *AccountRepositoryMSSQL) GetByID(ctx context.Context, accountID int64) (*model.ConnectedAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM connected_accounts WHERE id=@p1`, accountID)
	return scanAccount(row)
}

func (r *AccountRepositoryMSSQL) ListByUser(ctx context.Context, userID string) ([]*model.ConnectedAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM connected_accounts WHERE user_id=@p1 AND is_active=1 ORDER BY connected_at`, userID)
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

func (r *AccountRepositoryMSSQL) UpdateCredential(ctx context.Context, accountID int64, cred model.Credential) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE connected_accounts SET access_token=@p1, refresh_token=@p2, token_type=@p3, expires_at=@p4, updated_at=@p5 WHERE id=@p6`,
		cred.AccessToken, cred.RefreshToken, cred.TokenType, cred.ExpiresAt, time.Now().UTC(), accountID)
	return err
}

func (r *AccountRepositoryMSSQL) Deactivate(ctx context.Context, accountID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE connected_accounts SET is_active=0, updated_at=@p1 WHERE id=@p2`, time.Now().UTC(), accountID)
	return err
}

func (r *AccountRepositoryMSSQL) Delete(ctx context.Context, accountID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM connected_accounts WHERE id=@p1`, accountID)
	return err
}
