package store

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/vibeusage/internal/models"
)

func newMockedAuditWriter(t *testing.T) (*AuditWriter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "postgres")
	return NewAuditWriter(sqlxDB), mock
}

func TestAuditWriterRecordsSuccessfulInsert(t *testing.T) {
	writer, mock := newMockedAuditWriter(t)
	mock.ExpectExec("INSERT INTO fetch_history").
		WithArgs("claude", true, "cli", "", false, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	writer.Record(context.Background(), models.FetchOutcome{
		ProviderID: "claude", Success: true, Source: "cli",
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditWriterSwallowsDatabaseError(t *testing.T) {
	writer, mock := newMockedAuditWriter(t)
	mock.ExpectExec("INSERT INTO fetch_history").
		WillReturnError(assertAnyError{})

	writer.Record(context.Background(), models.FetchOutcome{ProviderID: "claude", Success: false})
	require.NoError(t, mock.ExpectationsWereMet())
}

type assertAnyError struct{}

func (assertAnyError) Error() string { return "connection refused" }
