package db

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiaoxiunique/xhs-poster/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gdb, mock
}

func TestAccountGetByID(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewAccountRepository(NewRepository(gdb))

	rows := sqlmock.NewRows([]string{"id", "name", "cookie", "status", "is_active"}).
		AddRow(1, "main", "cookie", models.StatusActive, true)
	mock.ExpectQuery(`SELECT (.+) FROM "xhs_accounts" WHERE`).
		WithArgs(int64(1), 1).
		WillReturnRows(rows)

	account, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, "main", account.Name)
	assert.True(t, account.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountGetByIDMissing(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewAccountRepository(NewRepository(gdb))

	mock.ExpectQuery(`SELECT (.+) FROM "xhs_accounts" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	account, err := repo.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, account)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountSetActiveIsTransactional(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewAccountRepository(NewRepository(gdb))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "xhs_accounts" SET "is_active"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "xhs_accounts" SET "is_active"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetActive(context.Background(), 3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountSetValidity(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewAccountRepository(NewRepository(gdb))

	mock.ExpectExec(`UPDATE "xhs_accounts" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetValidity(context.Background(), 3, models.StatusExpired, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialExists(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewMaterialRepository(NewRepository(gdb))

	mock.ExpectQuery(`SELECT count\(\*\) FROM "materials" WHERE`).
		WithArgs(int64(1), "note-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), 1, "note-1")
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialExistsMissing(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewMaterialRepository(NewRepository(gdb))

	mock.ExpectQuery(`SELECT count\(\*\) FROM "materials" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	exists, err := repo.Exists(context.Background(), 1, "never-seen")
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialListWithKeyword(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewMaterialRepository(NewRepository(gdb))

	mock.ExpectQuery(`SELECT count\(\*\) FROM "materials" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT (.+) FROM "materials" WHERE (.+)ILIKE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "note_id", "title"}).
			AddRow(5, 1, "note-5", "a cat story"))

	materials, total, err := repo.List(context.Background(), 1, "cat", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, materials, 1)
	assert.Equal(t, "a cat story", materials[0].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKvConfiguredTopics(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewKvRepository(NewRepository(gdb))

	data := `{"commonTags":[{"id":"t1","name":"编程","link":"","view_num":9,"type":"official","smart":false}]}`
	mock.ExpectQuery(`SELECT (.+) FROM "kv" WHERE`).
		WithArgs(models.SettingsKey, 1).
		WillReturnRows(sqlmock.NewRows([]string{"key", "data"}).AddRow(models.SettingsKey, data))

	topics, err := repo.ConfiguredTopics(context.Background())
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, "编程", topics[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKvConfiguredTopicsUnset(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewKvRepository(NewRepository(gdb))

	mock.ExpectQuery(`SELECT (.+) FROM "kv" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "data"}))

	topics, err := repo.ConfiguredTopics(context.Background())
	require.NoError(t, err)
	assert.Nil(t, topics)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKvConfiguredTopicsMalformed(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewKvRepository(NewRepository(gdb))

	mock.ExpectQuery(`SELECT (.+) FROM "kv" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "data"}).AddRow(models.SettingsKey, "not json"))

	_, err := repo.ConfiguredTopics(context.Background())
	require.Error(t, err)
}
