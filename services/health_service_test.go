package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/devfolio/portfolio-backend/types"
	"github.com/go-redis/redismock/v9"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	depth   int
	running bool
}

func (f *fakeQueue) QueueDepth() int { return f.depth }
func (f *fakeQueue) IsRunning() bool { return f.running }

func TestNewHealthService(t *testing.T) {
	redisClient, _ := redismock.NewClientMock()

	service := NewHealthService(nil, redisClient, "1.0.0")

	assert.NotNil(t, service)
	assert.Equal(t, "1.0.0", service.version)
	assert.NotNil(t, service.log)
	assert.True(t, time.Since(service.startTime) < time.Second)
}

func TestHealthService_CheckHealth(t *testing.T) {
	tests := []struct {
		name           string
		withDB         bool
		setupMocks     func(pgxmock.PgxPoolIface, redismock.ClientMock)
		expectedStatus types.HealthStatus
		expectedDB     types.HealthStatus
		expectedRedis  types.HealthStatus
	}{
		{
			name:   "all healthy",
			withDB: true,
			setupMocks: func(db pgxmock.PgxPoolIface, r redismock.ClientMock) {
				db.ExpectPing()
				r.ExpectPing().SetVal("PONG")
			},
			expectedStatus: types.HealthStatusUp,
			expectedDB:     types.HealthStatusUp,
			expectedRedis:  types.HealthStatusUp,
		},
		{
			name:   "archive disabled",
			withDB: false,
			setupMocks: func(db pgxmock.PgxPoolIface, r redismock.ClientMock) {
				r.ExpectPing().SetVal("PONG")
			},
			expectedStatus: types.HealthStatusUp,
			expectedDB:     types.HealthStatusDisabled,
			expectedRedis:  types.HealthStatusUp,
		},
		{
			name:   "database down degrades",
			withDB: true,
			setupMocks: func(db pgxmock.PgxPoolIface, r redismock.ClientMock) {
				db.ExpectPing().WillReturnError(errors.New("connection refused"))
				r.ExpectPing().SetVal("PONG")
			},
			expectedStatus: types.HealthStatusDegraded,
			expectedDB:     types.HealthStatusDown,
			expectedRedis:  types.HealthStatusUp,
		},
		{
			name:   "redis down",
			withDB: true,
			setupMocks: func(db pgxmock.PgxPoolIface, r redismock.ClientMock) {
				db.ExpectPing()
				r.ExpectPing().SetErr(errors.New("connection refused"))
			},
			expectedStatus: types.HealthStatusDown,
			expectedDB:     types.HealthStatusUp,
			expectedRedis:  types.HealthStatusDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbMock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer dbMock.Close()

			redisClient, redisMock := redismock.NewClientMock()
			tt.setupMocks(dbMock, redisMock)

			var db Pinger
			if tt.withDB {
				db = dbMock
			}
			service := NewHealthService(db, redisClient, "1.0.0")

			health := service.CheckHealth(context.Background())

			assert.Equal(t, tt.expectedStatus, health.Status)
			assert.Equal(t, tt.expectedDB, health.Components["database"].Status)
			assert.Equal(t, tt.expectedRedis, health.Components["redis"].Status)
			assert.Equal(t, "1.0.0", health.Version)
			assert.NotEmpty(t, health.Timestamp)
			assert.NotEmpty(t, health.Uptime)

			assert.NoError(t, dbMock.ExpectationsWereMet())
			assert.NoError(t, redisMock.ExpectationsWereMet())
		})
	}
}

func TestHealthService_CheckQueue(t *testing.T) {
	tests := []struct {
		name     string
		queue    *fakeQueue
		expected types.HealthStatus
		overall  types.HealthStatus
	}{
		{"idle queue", &fakeQueue{depth: 0, running: true}, types.HealthStatusUp, types.HealthStatusUp},
		{"near capacity", &fakeQueue{depth: 9, running: true}, types.HealthStatusDegraded, types.HealthStatusDegraded},
		{"stopped", &fakeQueue{running: false}, types.HealthStatusDown, types.HealthStatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			redisClient, redisMock := redismock.NewClientMock()
			redisMock.ExpectPing().SetVal("PONG")

			service := NewHealthService(nil, redisClient, "1.0.0")
			service.SetQueueMonitor(tt.queue, 10)

			health := service.CheckHealth(context.Background())

			assert.Equal(t, tt.expected, health.Components["archive_queue"].Status)
			assert.Equal(t, tt.overall, health.Status)
		})
	}
}
