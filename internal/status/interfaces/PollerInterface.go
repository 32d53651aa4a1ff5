package interfaces

import "nonomi/internal/models"

type UpdateHandler func(rec *models.StatusRecord)

type ErrorHandler func(err error)

// RecoverHandler runs on the first successful fetch after a failed one,
// whether or not that fetch carried a newer record.
type RecoverHandler func()

type PollerInterface interface {
	StartPolling()
	StopPolling()
	OnUpdate(handler UpdateHandler)
	OnError(handler ErrorHandler)
	OnRecover(handler RecoverHandler)
	Current() *models.StatusRecord
	LastError() error
	LastTimestamp() int64
	Running() bool
}
