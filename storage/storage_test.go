package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weeromzet/models"
)

func record(date, location, amount string, row int) models.SalesRecord {
	d, _ := time.Parse("2006-01-02", date)
	return models.SalesRecord{
		Date:           d.Add(12 * time.Hour),
		Location:       location,
		Amount:         decimal.RequireFromString(amount),
		SourceRowIndex: row,
		RawLine:        date + ";" + location + ";" + amount,
	}
}

func TestMockRedisClient(t *testing.T) {
	tests := []struct {
		name   string
		client RedisClient
	}{
		{"MockRedisClient", NewMockRedisClient()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			_, err := tt.client.Get(ctx, "missing")
			if !errors.Is(err, ErrCacheMiss) {
				t.Fatalf("expected ErrCacheMiss, got %v", err)
			}

			require.NoError(t, tt.client.Set(ctx, "k", "v", 0))
			got, err := tt.client.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v", got)

			require.NoError(t, tt.client.Del(ctx, "k"))
			_, err = tt.client.Get(ctx, "k")
			assert.ErrorIs(t, err, ErrCacheMiss)
			assert.NoError(t, tt.client.Ping(ctx))
		})
	}
}

func TestMockRedisClientExpiry(t *testing.T) {
	m := NewMockRedisClient()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	_, err := m.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 2, m.Gets)
	assert.Equal(t, 1, m.Sets)
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "sales.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	var _ RecordWriter = w
	require.NoError(t, w.WriteRecords([]models.SalesRecord{
		record("2024-01-15", "Dam, Noord", "1234.5", 1),
		record("2024-01-16", "Zuid", "320", 2),
	}))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"2024-01-15", "Dam, Noord", "1234.50", "1", "2024-01-15;Dam, Noord;1234.5"}, rows[1])
	assert.Equal(t, "320.00", rows[2][2])
}

func TestBuildRecordInsert(t *testing.T) {
	id := uuid.New()
	query, args := buildRecordInsert(id, []models.SalesRecord{
		record("2024-01-15", "Dam", "100", 1),
		record("2024-01-16", "Zuid", "200.5", 3),
	})

	assert.Contains(t, query, "INSERT INTO sales_records (upload_id, sale_date, location, amount, source_row)")
	assert.Contains(t, query, "($1,$2,$3,$4,$5),($6,$7,$8,$9,$10)")
	assert.False(t, strings.Contains(query, "$11"))

	require.Len(t, args, 10)
	assert.Equal(t, id, args[0])
	assert.Equal(t, "2024-01-15", args[1])
	assert.Equal(t, "Zuid", args[7])
	assert.True(t, args[8].(decimal.Decimal).Equal(decimal.RequireFromString("200.5")))
	assert.Equal(t, 3, args[9])
}
