package interfaces

import (
	"net/http"
	"nonomi/internal/models"
)

// PublisherInterface accepts feed events. Publish must not block.
type PublisherInterface interface {
	Publish(ev models.FeedEvent)
	Subscribers() int
}

type HubInterface interface {
	PublisherInterface
	http.Handler
	Close()
}
