package models

import (
	"errors"

	json "github.com/goccy/go-json"
)

var ErrMissingTimestamp = errors.New("status record has no timestamp")

// StatusRecord is the backend's current desired UI state as served by
// the status endpoint. Timestamp is the freshness key.
type StatusRecord struct {
	Timestamp int64  `json:"timestamp"`
	Voice     string `json:"voice"`
	HTML      string `json:"html"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	DanmuText string `json:"danmu_text"`
	Action    Action `json:"action,omitempty"`
	Value     string `json:"value,omitempty"`
}

type statusRecordWire struct {
	Timestamp *int64 `json:"timestamp"`
	Voice     string `json:"voice"`
	HTML      string `json:"html"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	DanmuText string `json:"danmu_text"`
	Action    Action `json:"action"`
	Value     string `json:"value"`
}

func (s *StatusRecord) UnmarshalJSON(data []byte) error {
	var w statusRecordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	return w.into(s)
}

func (w *statusRecordWire) into(s *StatusRecord) error {
	if w.Timestamp == nil {
		return ErrMissingTimestamp
	}
	*s = StatusRecord{
		Timestamp: *w.Timestamp,
		Voice:     w.Voice,
		HTML:      w.HTML,
		Width:     w.Width,
		Height:    w.Height,
		DanmuText: w.DanmuText,
		Action:    w.Action,
		Value:     w.Value,
	}
	return nil
}

func (s *StatusRecord) NewerThan(ts int64) bool {
	return s.Timestamp > ts
}

func (s *StatusRecord) HasVoice() bool {
	return s.Voice != ""
}

func DecodeStatusRecord(data []byte) (*StatusRecord, error) {
	var w statusRecordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}

	var rec StatusRecord
	if err := w.into(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
