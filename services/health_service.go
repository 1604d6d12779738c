package services

import (
	"context"
	"time"

	"github.com/devfolio/portfolio-backend/logger"
	"github.com/devfolio/portfolio-backend/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// QueueMonitor is satisfied by *WorkerPool.
type QueueMonitor interface {
	QueueDepth() int
	IsRunning() bool
}

// HealthService reports the state of the relay's dependencies. Redis backs
// the rate limiter and is required; the archive database and its worker
// pool are optional and only degrade the service when they fail.
type HealthService struct {
	db          Pinger
	redisClient *redis.Client
	queue       QueueMonitor
	queueSize   int
	version     string
	startTime   time.Time
	log         *zap.SugaredLogger
}

// NewHealthService creates a health service. db may be nil when the
// archive is disabled.
func NewHealthService(db Pinger, redisClient *redis.Client, version string) *HealthService {
	return &HealthService{
		db:          db,
		redisClient: redisClient,
		version:     version,
		startTime:   time.Now(),
		log:         logger.GetLogger().Named("health"),
	}
}

// SetQueueMonitor attaches the archive worker pool so a backed-up queue is
// reported as degraded.
func (h *HealthService) SetQueueMonitor(q QueueMonitor, capacity int) {
	h.queue = q
	h.queueSize = capacity
}

func (h *HealthService) CheckHealth(ctx context.Context) types.HealthCheck {
	components := map[string]types.HealthComponent{
		"redis":    h.checkRedis(ctx),
		"database": h.checkDatabase(ctx),
	}
	if h.queue != nil {
		components["archive_queue"] = h.checkQueue()
	}

	overall := types.HealthStatusUp
	for name, component := range components {
		switch component.Status {
		case types.HealthStatusDown:
			if name == "redis" {
				overall = types.HealthStatusDown
			} else if overall != types.HealthStatusDown {
				overall = types.HealthStatusDegraded
			}
		case types.HealthStatusDegraded:
			if overall != types.HealthStatusDown {
				overall = types.HealthStatusDegraded
			}
		}
	}

	return types.HealthCheck{
		Status:     overall,
		Components: components,
		Version:    h.version,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
	}
}

func (h *HealthService) checkDatabase(ctx context.Context) types.HealthComponent {
	if h.db == nil {
		return types.HealthComponent{
			Status:  types.HealthStatusDisabled,
			Details: "Archive disabled",
		}
	}

	start := time.Now()
	if err := h.db.Ping(ctx); err != nil {
		h.log.Errorw("Database health check failed", "error", err)
		return types.HealthComponent{
			Status:  types.HealthStatusDown,
			Details: "Database connection failed",
		}
	}

	return types.HealthComponent{
		Status:    types.HealthStatusUp,
		LatencyMS: time.Since(start).Milliseconds(),
	}
}

func (h *HealthService) checkRedis(ctx context.Context) types.HealthComponent {
	if h.redisClient == nil {
		return types.HealthComponent{
			Status:  types.HealthStatusDown,
			Details: "Redis client not configured",
		}
	}

	start := time.Now()
	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		h.log.Errorw("Redis health check failed", "error", err)
		return types.HealthComponent{
			Status:  types.HealthStatusDown,
			Details: "Redis connection failed",
		}
	}

	return types.HealthComponent{
		Status:    types.HealthStatusUp,
		LatencyMS: time.Since(start).Milliseconds(),
	}
}

func (h *HealthService) checkQueue() types.HealthComponent {
	if !h.queue.IsRunning() {
		return types.HealthComponent{
			Status:  types.HealthStatusDown,
			Details: "Worker pool not running",
		}
	}
	if h.queueSize > 0 && float64(h.queue.QueueDepth())/float64(h.queueSize) > 0.8 {
		return types.HealthComponent{
			Status:  types.HealthStatusDegraded,
			Details: "Archive queue near capacity",
		}
	}
	return types.HealthComponent{Status: types.HealthStatusUp}
}
