package handler

import (
	"context"
	"net/http"
	"time"

	"erppsi/internal/infra"
	"erppsi/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity and reports the remote renderer's circuit
// state when one is in use (cb may be nil). Redis being down only degrades
// the post-signature jobs, so it does not fail the check.
func Health(db *gorm.DB, rdb redis.Cmdable, cb *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		body := gin.H{"db": dbStatus}

		if rdb != nil {
			redisStatus := "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			} else if n, err := worker.DLQLength(ctx, rdb, worker.QueueContratoFirmado); err == nil {
				body["dlq_contrato_firmado"] = n
			}
			body["redis"] = redisStatus
		}

		status := http.StatusOK
		if dbStatus != "connected" {
			status = http.StatusServiceUnavailable
		}
		if cb != nil {
			state := cb.State()
			body["renderer"] = state.String()
			if state == infra.CBOpen {
				status = http.StatusServiceUnavailable
			}
		}

		body["ok"] = status == http.StatusOK
		c.JSON(status, body)
	}
}
