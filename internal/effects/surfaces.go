package effects

import (
	"nonomi/internal/dispatch/interfaces"
	feed "nonomi/internal/feed/interfaces"
	"nonomi/internal/models"
	"nonomi/internal/providers"
	"sync"
)

type CaptionBoard struct {
	publisher feed.PublisherInterface

	mu   sync.Mutex
	text string
}

func NewCaptionBoard(publisher feed.PublisherInterface) interfaces.CaptionDisplay {
	return &CaptionBoard{publisher: publisher}
}

func (c *CaptionBoard) Show(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.text = text
	c.publisher.Publish(models.NewFeedEvent(models.FeedCaption, models.CaptionPayload{Text: text}))
	return nil
}

func (c *CaptionBoard) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// WebSurface shows a page (usually a QR code) next to the widget. Hide on
// a hidden surface publishes nothing.
type WebSurface struct {
	publisher feed.PublisherInterface
	logger    providers.Logger

	mu      sync.Mutex
	visible bool
	url     string
}

func NewWebSurface(publisher feed.PublisherInterface, logger providers.Logger) interfaces.WebSurface {
	return &WebSurface{publisher: publisher, logger: logger}
}

func (w *WebSurface) Show(url string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.visible && w.url == url {
		return nil
	}
	if url == "" {
		w.logger.Warnf(providers.TypeDispatch, "Showing web surface without a url")
	}

	w.visible = true
	w.url = url
	w.publisher.Publish(models.NewFeedEvent(models.FeedWebSurface, models.SurfacePayload{Visible: true, Url: url}))
	return nil
}

func (w *WebSurface) Hide() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.visible {
		return nil
	}

	w.visible = false
	w.url = ""
	w.publisher.Publish(models.NewFeedEvent(models.FeedWebSurface, models.SurfacePayload{Visible: false}))
	return nil
}

func (w *WebSurface) Visible() (bool, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible, w.url
}

type TransferPanel struct {
	publisher feed.PublisherInterface

	mu      sync.Mutex
	visible bool
	chain   string
}

func NewTransferPanel(publisher feed.PublisherInterface) interfaces.TransferUI {
	return &TransferPanel{publisher: publisher}
}

func (t *TransferPanel) Show(chain string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.visible && t.chain == chain {
		return nil
	}

	t.visible = true
	t.chain = chain
	t.publisher.Publish(models.NewFeedEvent(models.FeedTransfer, models.SurfacePayload{Visible: true, Chain: chain}))
	return nil
}

func (t *TransferPanel) Hide() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.visible {
		return nil
	}

	t.visible = false
	t.chain = ""
	t.publisher.Publish(models.NewFeedEvent(models.FeedTransfer, models.SurfacePayload{Visible: false}))
	return nil
}

func (t *TransferPanel) Visible() (bool, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible, t.chain
}
