package cron

import (
	"time"

	"go.uber.org/zap"

	"voicedesk/services/dialog"
	"voicedesk/utils"
)

const (
	sweepInterval  = 30 * time.Second
	turnMaxAge     = 2 * time.Minute
	pendingMaxAge  = 10 * time.Minute
	sessionMaxIdle = 30 * time.Minute
)

// StartSweeper runs the periodic cleanup of expired turn cells, stale
// pending bookings, and idle sessions. Closing stop ends the loop.
func StartSweeper(sessions *dialog.SessionStore, turns *dialog.TurnStore, stop <-chan struct{}) {
	go func() {
		logger := utils.GetLogger()
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				expiredTurns := turns.SweepExpired(now, turnMaxAge)
				removedSessions := sessions.SweepIdle(now, sessionMaxIdle, pendingMaxAge)
				if expiredTurns > 0 || removedSessions > 0 {
					logger.Debug("Sweep completed",
						zap.Int("expiredTurns", expiredTurns),
						zap.Int("removedSessions", removedSessions))
				}
			}
		}
	}()
}
