package persistence

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"social-publisher/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountRowColumns = []string{
	"id", "user_id", "platform", "platform_account_id", "username", "display_name", "avatar_url",
	"access_token", "refresh_token", "token_type", "expires_at", "scopes", "metadata",
	"is_active", "connected_at", "created_at", "updated_at",
}

func accountRow(mock sqlmock.Sqlmock, id int64, userID, platform string, active bool) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(accountRowColumns).AddRow(
		id, userID, platform, "acct-9", "tester", "Tester", "https://cdn.test/a.png",
		"tok", "refresh", "bearer", now.Add(time.Hour), "read,write", `{"k":"v"}`,
		active, now, now, now,
	)
}

func TestAccountUpsertReturnsStoredRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO connected_accounts")).
		WithArgs("user-1", "twitter", "acct-9", "tester", "Tester", "https://cdn.test/a.png",
			"tok", "refresh", "bearer", sqlmock.AnyArg(), "read,write", sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(accountRow(mock, 7, "user-1", "twitter", true))

	repo := NewAccountRepository(db)
	exp := time.Now().Add(time.Hour).UTC()
	account, err := repo.Upsert(context.Background(), &model.ConnectedAccount{
		UserID:            "user-1",
		Platform:          "twitter",
		PlatformAccountID: "acct-9",
		Username:          "tester",
		DisplayName:       "Tester",
		AvatarURL:         "https://cdn.test/a.png",
		Credential:        model.Credential{AccessToken: "tok", RefreshToken: "refresh", TokenType: "bearer", ExpiresAt: &exp},
		Scopes:            "read,write",
		Metadata:          map[string]string{"k": "v"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), account.ID)
	assert.True(t, account.IsActive)
	assert.Equal(t, "refresh", account.Credential.RefreshToken)
	assert.Equal(t, map[string]string{"k": "v"}, account.Metadata)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM connected_accounts WHERE id=$1")).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	repo := NewAccountRepository(db)
	_, err = repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountListByUserSkipsInactive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id=$1 AND is_active=TRUE")).
		WithArgs("user-1").
		WillReturnRows(accountRow(mock, 1, "user-1", "twitter", true))

	repo := NewAccountRepository(db)
	accounts, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "twitter", accounts[0].Platform)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountDeactivate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE connected_accounts SET is_active=FALSE")).
		WithArgs(sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewAccountRepository(db)
	require.NoError(t, repo.Deactivate(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountUpdateCredential(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE connected_accounts SET access_token=$1")).
		WithArgs("new", "refresh-2", "bearer", sqlmock.AnyArg(), sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewAccountRepository(db)
	exp := time.Now().Add(2 * time.Hour).UTC()
	err = repo.UpdateCredential(context.Background(), 3, model.Credential{
		AccessToken: "new", RefreshToken: "refresh-2", TokenType: "bearer", ExpiresAt: &exp,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
