package services

import (
	feed "nonomi/internal/feed/interfaces"
	"nonomi/internal/models"
	"sync"
)

type StatusSnapshot struct {
	Status   *models.StatusRecord
	Error    string
	Version  uint64
	Accepted uint64
	Errors   uint64
}

type StatusServiceInterface interface {
	HandleUpdate(rec *models.StatusRecord)
	HandleError(err error)
	HandleRecovered()
	Snapshot() StatusSnapshot
	Version() uint64
}

// StatusService is the observable application state. Every change bumps
// the version, which readers use to cache what they derive from it.
type StatusService struct {
	publisher feed.PublisherInterface

	mu       sync.RWMutex
	current  *models.StatusRecord
	errMsg   string
	version  uint64
	accepted uint64
	errors   uint64
}

func NewStatusService(publisher feed.PublisherInterface) StatusServiceInterface {
	return &StatusService{publisher: publisher}
}

func (ss *StatusService) HandleUpdate(rec *models.StatusRecord) {
	ss.mu.Lock()
	ss.current = rec
	ss.errMsg = ""
	ss.accepted++
	ss.version++
	ss.mu.Unlock()

	ss.publisher.Publish(models.NewFeedEvent(models.FeedStatus, rec))
}

func (ss *StatusService) HandleError(err error) {
	if err == nil {
		return
	}

	ss.mu.Lock()
	ss.errMsg = err.Error()
	ss.errors++
	ss.version++
	ss.mu.Unlock()

	ss.publisher.Publish(models.NewFeedEvent(models.FeedError, models.ErrorPayload{Message: err.Error()}))
}

// HandleRecovered clears the error once the status source answers again,
// even when the answer carried no new record.
func (ss *StatusService) HandleRecovered() {
	ss.mu.Lock()
	if ss.errMsg == "" {
		ss.mu.Unlock()
		return
	}
	ss.errMsg = ""
	ss.version++
	ss.mu.Unlock()
}

func (ss *StatusService) Snapshot() StatusSnapshot {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	return StatusSnapshot{
		Status:   ss.current,
		Error:    ss.errMsg,
		Version:  ss.version,
		Accepted: ss.accepted,
		Errors:   ss.errors,
	}
}

func (ss *StatusService) Version() uint64 {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.version
}
