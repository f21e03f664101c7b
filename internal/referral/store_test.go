package referral

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/weva-assistant/internal/domain"
	apperrors "github.com/Proton-105/weva-assistant/internal/errors"
)

func TestStoreRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	openedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO booking_referrals")).
		WithArgs("chat:42", "30", "Hot stone", "10", "20", "en", "https://weva.live/en/service/30", openedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = NewStore(db).Record(context.Background(), Referral{
		SessionID:    "chat:42",
		ServiceID:    "30",
		ServiceName:  "Hot stone",
		CenterID:     "10",
		DepartmentID: "20",
		Locale:       domain.LocaleEnglish,
		URL:          "https://weva.live/en/service/30",
		OpenedAt:     openedAt,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRecordFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO booking_referrals")).WillReturnError(errors.New("connection reset"))

	err = NewStore(db).Record(context.Background(), Referral{SessionID: "chat:1", ServiceID: "1"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDatabase))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreTopServices(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT service_id, MAX(service_name), COUNT(*) AS opened")).
		WithArgs(since, 3).
		WillReturnRows(sqlmock.NewRows([]string{"service_id", "service_name", "opened"}).
			AddRow("30", "Hot stone", 7).
			AddRow("31", "Glow", 2))

	counts, err := NewStore(db).TopServices(context.Background(), since, 3)
	require.NoError(t, err)
	assert.Equal(t, []ServiceCount{
		{ServiceID: "30", ServiceName: "Hot stone", Count: 7},
		{ServiceID: "31", ServiceName: "Glow", Count: 2},
	}, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNilStoreRecordIsNoop(t *testing.T) {
	var store *Store
	assert.NoError(t, store.Record(context.Background(), Referral{}))
}
