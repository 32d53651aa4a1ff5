package models

import "time"

type FeedEventType string

const (
	FeedStatus     FeedEventType = "status"
	FeedWidget     FeedEventType = "widget"
	FeedCaption    FeedEventType = "caption"
	FeedAudio      FeedEventType = "audio"
	FeedWebSurface FeedEventType = "web_surface"
	FeedTransfer   FeedEventType = "transfer"
	FeedError      FeedEventType = "error"
)

// FeedEvent is the envelope pushed to feed subscribers.
type FeedEvent struct {
	Type    FeedEventType `json:"type"`
	At      time.Time     `json:"at"`
	Payload any           `json:"payload"`
}

func NewFeedEvent(t FeedEventType, payload any) FeedEvent {
	return FeedEvent{Type: t, At: time.Now().UTC(), Payload: payload}
}

type WidgetPayload struct {
	HTML   string `json:"html"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Path   string `json:"path,omitempty"`
}

type CaptionPayload struct {
	Text string `json:"text"`
}

type AudioPayload struct {
	Playing bool   `json:"playing"`
	Url     string `json:"url,omitempty"`
	Path    string `json:"path,omitempty"`
	Bytes   int    `json:"bytes,omitempty"`
}

type SurfacePayload struct {
	Visible bool   `json:"visible"`
	Url     string `json:"url,omitempty"`
	Chain   string `json:"chain,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
