package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v8"
	"github.com/novelnest/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	qPackage       = regexp.QuoteMeta("SELECT id, name, price, currency, coins_amount, is_active FROM coin_packages WHERE id = $1 AND is_active = true")
	qPackages      = regexp.QuoteMeta("SELECT id, name, price, currency, coins_amount, is_active FROM coin_packages WHERE is_active = true ORDER BY price ASC")
	packageColumns = []string{"id", "name", "price", "currency", "coins_amount", "is_active"}
)

const testPackageID = "9b2e6f0c-8a57-4d4f-a3d5-3a3c4a1e2b70"

func TestCoinPackageStore_GetActive(t *testing.T) {
	ctx := context.Background()
	pkg := models.CoinPackage{ID: testPackageID, Name: "Starter", Price: 500, Currency: "NGN", CoinsAmount: 100, IsActive: true}
	cached, _ := json.Marshal(pkg)

	t.Run("cache hit skips the database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		redisClient, redisMock := redismock.NewClientMock()

		redisMock.ExpectGet("coin_package:" + testPackageID).SetVal(string(cached))

		store := NewCoinPackageStore(db, redisClient, time.Minute)
		got, err := store.GetActive(ctx, testPackageID)
		require.NoError(t, err)
		assert.Equal(t, &pkg, got)
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("cache miss loads and stores", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		redisClient, redisMock := redismock.NewClientMock()

		redisMock.ExpectGet("coin_package:" + testPackageID).RedisNil()
		mock.ExpectQuery(qPackage).
			WithArgs(testPackageID).
			WillReturnRows(sqlmock.NewRows(packageColumns).AddRow(testPackageID, "Starter", 500.0, "NGN", 100, true))
		redisMock.ExpectSet("coin_package:"+testPackageID, cached, time.Minute).SetVal("OK")

		store := NewCoinPackageStore(db, redisClient, time.Minute)
		got, err := store.GetActive(ctx, testPackageID)
		require.NoError(t, err)
		assert.Equal(t, int64(100), got.CoinsAmount)
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("redis failure falls back to the database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		redisClient, redisMock := redismock.NewClientMock()

		redisMock.ExpectGet("coin_package:" + testPackageID).SetErr(errors.New("i/o timeout"))
		mock.ExpectQuery(qPackage).
			WithArgs(testPackageID).
			WillReturnRows(sqlmock.NewRows(packageColumns).AddRow(testPackageID, "Starter", 500.0, "NGN", 100, true))
		redisMock.ExpectSet("coin_package:"+testPackageID, cached, time.Minute).SetErr(errors.New("i/o timeout"))

		store := NewCoinPackageStore(db, redisClient, time.Minute)
		got, err := store.GetActive(ctx, testPackageID)
		require.NoError(t, err)
		assert.Equal(t, "Starter", got.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inactive or missing package", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(qPackage).
			WithArgs(testPackageID).
			WillReturnError(sql.ErrNoRows)

		store := NewCoinPackageStore(db, nil, time.Minute)
		_, err = store.GetActive(ctx, testPackageID)
		assert.True(t, IsKind(err, KindNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCoinPackageStore_ListActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(qPackages).
		WillReturnRows(sqlmock.NewRows(packageColumns).
			AddRow("p-1", "Starter", 500.0, "NGN", 100, true).
			AddRow("p-2", "Binge", 2000.0, "NGN", 500, true))

	store := NewCoinPackageStore(db, nil, 0)
	packages, err := store.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, packages, 2)
	assert.Equal(t, "Binge", packages[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
