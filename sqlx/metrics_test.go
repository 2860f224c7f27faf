package sqlx

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetrics_RecordQueryDuration(t *testing.T) {
	type args struct {
		method    string
		operation string
		err       error
	}

	tests := []struct {
		name      string
		args      args
		wantAttrs []attribute.KeyValue
	}{
		{
			name: "given successful query, then records with ok status",
			args: args{method: "Get", operation: "SELECT"},
			wantAttrs: []attribute.KeyValue{
				attribute.String("db.system", "postgresql"),
				attribute.String("db.sqlx.method", "Get"),
				attribute.String("db.operation", "SELECT"),
				attribute.String("status", "ok"),
			},
		},
		{
			name: "given failed query, then records with error status",
			args: args{method: "Tx.Exec", operation: "UPDATE", err: assert.AnError},
			wantAttrs: []attribute.KeyValue{
				attribute.String("db.system", "postgresql"),
				attribute.String("db.sqlx.method", "Tx.Exec"),
				attribute.String("db.operation", "UPDATE"),
				attribute.String("status", "error"),
			},
		},
		{
			name: "given empty operation, then records without operation attribute",
			args: args{method: "Select"},
			wantAttrs: []attribute.KeyValue{
				attribute.String("db.system", "postgresql"),
				attribute.String("db.sqlx.method", "Select"),
				attribute.String("status", "ok"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := sdkmetric.NewManualReader()
			mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
			defer mp.Shutdown(context.Background())

			cfg := newConfig(WithDBSystem("postgresql"), WithMeterProvider(mp))
			require.NotNil(t, cfg.Metrics)

			cfg.Metrics.recordQueryDuration(
				context.Background(),
				100*time.Millisecond,
				tt.args.method,
				tt.args.operation,
				cfg.baseAttributes(),
				tt.args.err,
			)

			var rm metricdata.ResourceMetrics
			require.NoError(t, reader.Collect(context.Background(), &rm))

			hist := findHistogram(rm, "db.client.sqlx.duration")
			require.NotNil(t, hist)
			require.Len(t, hist.DataPoints, 1)

			dp := hist.DataPoints[0]
			assert.Equal(t, uint64(1), dp.Count)
			assert.Equal(t, attribute.NewSet(tt.wantAttrs...), dp.Attributes)
		})
	}
}

func TestMetrics_NilMetrics(t *testing.T) {
	var m *metrics
	assert.NotPanics(t, func() {
		m.recordQueryDuration(context.Background(), 100, "Get", "SELECT", nil, nil)
	})
}

func TestRecordPoolMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db := NewDB(mockDB, "postgres", WithDBSystem("postgresql"), WithDBName("users"))
	require.NoError(t, RecordPoolMetrics(db, mp.Meter("test")))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var found bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "db.client.connections.max" {
				continue
			}
			found = true
			gauge, ok := m.Data.(metricdata.Gauge[int64])
			require.True(t, ok)
			require.Len(t, gauge.DataPoints, 1)
			name, ok := gauge.DataPoints[0].Attributes.Value("db.name")
			require.True(t, ok)
			assert.Equal(t, "users", name.AsString())
		}
	}
	assert.True(t, found)
}

func findHistogram(rm metricdata.ResourceMetrics, name string) *metricdata.Histogram[float64] {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if h, ok := m.Data.(metricdata.Histogram[float64]); ok {
				return &h
			}
		}
	}
	return nil
}

func TestDB_QueryContext(t *testing.T) {
	type args struct {
		query string
	}

	tests := []struct {
		name    string
		args    args
		mockFn  func(sqlmock.Sqlmock)
		wantErr assert.ErrorAssertionFunc
	}{
		{
			name: "given valid query, then returns rows",
			args: args{query: "SELECT id FROM users"},
			mockFn: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2)
				mock.ExpectQuery("SELECT id FROM users").WillReturnRows(rows)
			},
			wantErr: assert.NoError,
		},
		{
			name: "given query that fails, then returns error",
			args: args{query: "SELECT id FROM nonexistent"},
			mockFn: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT id FROM nonexistent").
					WillReturnError(assert.AnError)
			},
			wantErr: assert.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer mockDB.Close()

			db := NewDB(mockDB, "postgres", WithDBSystem("postgresql"))
			tt.mockFn(mock)

			rows, err := db.QueryContext(context.Background(), tt.args.query)

			tt.wantErr(t, err)
			assertReport(t, err, "sqlx.Query")
			if rows != nil {
				rows.Close()
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDB_QueryRowContext(t *testing.T) {
	type args struct {
		query string
	}

	tests := []struct {
		name   string
		args   args
		mockFn func(sqlmock.Sqlmock)
		want   int
	}{
		{
			name: "given valid query, then returns row",
			args: args{query: "SELECT id FROM users WHERE id = 1"},
			mockFn: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id"}).AddRow(1)
				mock.ExpectQuery("SELECT id FROM users WHERE id = 1").WillReturnRows(rows)
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer mockDB.Close()

			db := NewDB(mockDB, "postgres", WithDBSystem("postgresql"))
			tt.mockFn(mock)

			row := db.QueryRowContext(context.Background(), tt.args.query)
			require.NotNil(t, row)

			var got int
			err = row.Scan(&got)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDB_QueryxContext(t *testing.T) {
	type args struct {
		query string
	}

	tests := []struct {
		name    string
		args    args
		mockFn  func(sqlmock.Sqlmock)
		wantErr assert.ErrorAssertionFunc
	}{
		{
			name: "given valid query, then returns sqlx rows",
			args: args{query: "SELECT id, name FROM users"},
			mockFn: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "name"}).
					AddRow(1, "John").
					AddRow(2, "Jane")
				mock.ExpectQuery("SELECT id, name FROM users").WillReturnRows(rows)
			},
			wantErr: assert.NoError,
		},
		{
			name: "given query that fails, then returns error",
			args: args{query: "SELECT id FROM nonexistent"},
			mockFn: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT id FROM nonexistent").
					WillReturnError(assert.AnError)
			},
			wantErr: assert.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer mockDB.Close()

			db := NewDB(mockDB, "postgres", WithDBSystem("postgresql"))
			tt.mockFn(mock)

			rows, err := db.QueryxContext(context.Background(), tt.args.query)

			tt.wantErr(t, err)
			assertReport(t, err, "sqlx.Queryx")
			if rows != nil {
				rows.Close()
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDB_QueryRowxContext(t *testing.T) {
	type args struct {
		query string
	}

	tests := []struct {
		name   string
		args   args
		mockFn func(sqlmock.Sqlmock)
	}{
		{
			name: "given valid query, then returns sqlx row",
			args: args{query: "SELECT id, name FROM users WHERE id = 1"},
			mockFn: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "John")
				mock.ExpectQuery("SELECT id, name FROM users WHERE id = 1").WillReturnRows(rows)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer mockDB.Close()

			db := NewDB(mockDB, "postgres", WithDBSystem("postgresql"))
			tt.mockFn(mock)

			row := db.QueryRowxContext(context.Background(), tt.args.query)
			require.NotNil(t, row)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDB_Beginx(t *testing.T) {
	tests := []struct {
		name    string
		mockFn  func(sqlmock.Sqlmock)
		wantErr assert.ErrorAssertionFunc
	}{
		{
			name: "given successful begin, then returns Tx",
			mockFn: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
			},
			wantErr: assert.NoError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer mockDB.Close()

			db := NewDB(mockDB, "postgres", WithDBSystem("postgresql"))
			tt.mockFn(mock)

			tx, err := db.Beginx()

			tt.wantErr(t, err)
			assertReport(t, err, "sqlx.BeginTxx")
			if err == nil {
				require.NotNil(t, tx)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDB_BindNamed(t *testing.T) {
	type args struct {
		query string
		arg   interface{}
	}

	type user struct {
		ID   int    `db:"id"`
		Name string `db:"name"`
	}

	tests := []struct {
		name    string
		args    args
		wantErr assert.ErrorAssertionFunc
	}{
		{
			name: "given struct with named params, then binds correctly",
			args: args{
				query: "SELECT * FROM users WHERE id = :id AND name = :name",
				arg:   user{ID: 1, Name: "John"},
			},
			wantErr: assert.NoError,
		},
		{
			name: "given map with named params, then binds correctly",
			args: args{
				query: "SELECT * FROM users WHERE id = :id",
				arg:   map[string]interface{}{"id": 1},
			},
			wantErr: assert.NoError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB, _, err := sqlmock.New()
			require.NoError(t, err)
			defer mockDB.Close()

			db := NewDB(mockDB, "postgres", WithDBSystem("postgresql"))

			query, args, err := db.BindNamed(tt.args.query, tt.args.arg)

			tt.wantErr(t, err)
			if err == nil {
				assert.NotEmpty(t, query)
				assert.NotEmpty(t, args)
			}
		})
	}
}

func TestDB_MapperFunc(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db := NewDB(mockDB, "postgres", WithDBSystem("postgresql"))

	// Should not panic
	db.MapperFunc(func(s string) string {
		return s
	})
}

func TestDB_Connect(t *testing.T) {
	type args struct {
		driverName string
		dsn        string
		opts       []Option
	}

	tests := []struct {
		name    string
		args    args
		wantErr assert.ErrorAssertionFunc
	}{
		{
			name: "given invalid driver, then returns error",
			args: args{
				driverName: "nonexistent_driver",
				dsn:        "some_dsn",
				opts:       nil,
			},
			wantErr: assert.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := Connect(
				context.Background(),
				tt.args.driverName,
				tt.args.dsn,
				tt.args.opts...)

			tt.wantErr(t, err)
			if err != nil {
				require.Nil(t, db)
			}
		})
	}
}

func TestDB_MustOpen_Panic(t *testing.T) {
	assert.Panics(t, func() {
		MustOpen("nonexistent_driver", "some_dsn")
	})
}

func TestDB_MustConnect_Panic(t *testing.T) {
	assert.Panics(t, func() {
		MustConnect(context.Background(), "nonexistent_driver", "some_dsn")
	})
}

func TestDB_MustBegin_Panic(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectBegin().WillReturnError(assert.AnError)

	db := NewDB(mockDB, "postgres", WithDBSystem("postgresql"))

	assert.Panics(t, func() {
		db.MustBegin()
	})
}

func TestDB_MustBeginTx_Success(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectBegin()

	db := NewDB(mockDB, "postgres", WithDBSystem("postgresql"))

	assert.NotPanics(t, func() {
		tx := db.MustBeginTx(context.Background(), nil)
		require.NotNil(t, tx)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
