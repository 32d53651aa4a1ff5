package interfaces

import "nonomi/internal/models"

type DispatcherInterface interface {
	Handle(rec *models.StatusRecord)
}
