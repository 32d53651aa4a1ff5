package feed

import (
	"context"
	"net/http"
	"nonomi/internal/feed/interfaces"
	"nonomi/internal/models"
	"nonomi/internal/providers"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	defaultQueueSize = 32
	writeTimeout     = 5 * time.Second
)

// replayOrder is the order in which the latest event of each type is sent
// to a client that just connected.
var replayOrder = []models.FeedEventType{
	models.FeedStatus,
	models.FeedWidget,
	models.FeedCaption,
	models.FeedAudio,
	models.FeedWebSurface,
	models.FeedTransfer,
	models.FeedError,
}

type client struct {
	id   string
	send chan []byte
}

// Hub fans feed events out to WebSocket subscribers. Each subscriber has a
// bounded queue; events for a full queue are dropped for that subscriber.
type Hub struct {
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
	queueSize int

	mu      sync.RWMutex
	clients map[string]*client
	last    map[models.FeedEventType][]byte

	done      chan struct{}
	closeOnce sync.Once
}

func NewHub(logger providers.Logger, metrics providers.MetricsProviderInterface) interfaces.HubInterface {
	return newHub(logger, metrics, defaultQueueSize)
}

func newHub(logger providers.Logger, metrics providers.MetricsProviderInterface, queueSize int) *Hub {
	return &Hub{
		logger:    logger,
		metrics:   metrics,
		queueSize: queueSize,
		clients:   make(map[string]*client),
		last:      make(map[models.FeedEventType][]byte),
		done:      make(chan struct{}),
	}
}

func (h *Hub) Publish(ev models.FeedEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Errorf(providers.TypeFeed, "Unable to encode %s event: %s", ev.Type, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.last[ev.Type] = data
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warnf(providers.TypeFeed, "Subscriber %s is slow, dropping %s event", c.id, ev.Type)
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams events until the client goes
// away or the hub is closed. Client messages are ignored.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warnf(providers.TypeFeed, "Websocket upgrade failed: %s", err)
		return
	}
	defer conn.CloseNow()

	c := h.register()
	defer h.unregister(c)

	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case data := <-c.send:
			if err := h.write(ctx, conn, data); err != nil {
				h.logger.Debugf(providers.TypeFeed, "Subscriber %s write failed: %s", c.id, err)
				return
			}
		}
	}
}

func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

func (h *Hub) write(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}

func (h *Hub) register() *client {
	c := &client{id: uuid.NewString(), send: make(chan []byte, h.queueSize)}

	h.mu.Lock()
	for _, t := range replayOrder {
		if data, ok := h.last[t]; ok {
			select {
			case c.send <- data:
			default:
			}
		}
	}
	h.clients[c.id] = c
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetFeedSubscribers(count)
	h.logger.Infof(providers.TypeFeed, "Subscriber %s connected (%d total)", c.id, count)
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetFeedSubscribers(count)
	h.logger.Infof(providers.TypeFeed, "Subscriber %s disconnected (%d total)", c.id, count)
}

// NewPublisher exposes the hub to components that only publish.
func NewPublisher(hub interfaces.HubInterface) interfaces.PublisherInterface {
	return hub
}
