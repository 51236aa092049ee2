package query

import (
	"alertflow/internal/model/entity"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&entity.AlertRecord{}, &entity.ExecutionRecord{}))
	return db
}

func TestAlertDao_CreateAndList(t *testing.T) {
	db := openTestDB(t)
	d := NewAlertDao(db)
	ctx := context.Background()

	base := time.Date(2023, 9, 14, 15, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		require.NoError(t, d.Create(ctx, &entity.AlertRecord{
			AlertID:       int64(i),
			StrategyName:  "S",
			Ticker:        "AAPL",
			AlertType:     "long",
			BarClose:      "176.40",
			AlertFireTime: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	assert.Error(t, d.Create(ctx, &entity.AlertRecord{}))

	items, total, err := d.List(ctx, 2, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, items, 2)
	assert.EqualValues(t, 4, items[0].AlertID)
	assert.EqualValues(t, 3, items[1].AlertID)
	assert.Equal(t, "176.40", items[0].BarClose)
}

func TestExecutionDao_SaveIgnoresDuplicateClientOrderID(t *testing.T) {
	db := openTestDB(t)
	d := NewExecutionDao(db)
	ctx := context.Background()

	rec := func(client, strategy, state string) *entity.ExecutionRecord {
		return &entity.ExecutionRecord{
			ClientOrderID: client,
			StrategyID:    strategy,
			State:         state,
			Attempts:      1,
			Strategy:      datatypes.JSON(`{"name":"S"}`),
		}
	}
	require.NoError(t, d.Save(ctx, rec("alertflow-1", "s1", "succeeded")))
	require.NoError(t, d.Save(ctx, rec("alertflow-1", "s1", "failed")))
	require.NoError(t, d.Save(ctx, rec("alertflow-2", "s2", "failed")))

	all, total, err := d.List(ctx, "", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	s1, total, err := d.List(ctx, "s1", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, s1, 1)
	assert.Equal(t, "succeeded", s1[0].State)
}
