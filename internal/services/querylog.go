package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Ananth-NQI/communitybot/internal/models"
	"github.com/Ananth-NQI/communitybot/internal/storage"
)

const queryLogTimeout = 5 * time.Second

// QueryLogger writes search audit records off the request path
type QueryLogger struct {
	store  storage.QueryLogStore
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewQueryLogger(store storage.QueryLogStore, logger *zap.Logger) *QueryLogger {
	return &QueryLogger{store: store, logger: logger.Named("querylog")}
}

// Record stores entry asynchronously. Failures are logged and dropped.
func (q *QueryLogger) Record(entry *models.QueryLog) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), queryLogTimeout)
		defer cancel()
		if err := q.store.RecordQuery(ctx, entry); err != nil {
			q.logger.Warn("failed to record query", zap.String("session_id", entry.SessionID), zap.Error(err))
		}
	}()
}

// Wait blocks until pending records are written
func (q *QueryLogger) Wait() {
	q.wg.Wait()
}
