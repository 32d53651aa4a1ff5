package internal

import (
	"net/http"
	"nonomi/internal/controllers"
	"nonomi/internal/providers"
	"nonomi/internal/structures"
)

func InitRoutes(
	statusController *controllers.StatusController,
	frameController *controllers.FrameController,
	transcribeController *controllers.TranscribeController,
	conf *structures.Config,
) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/status", http.HandlerFunc(statusController.GetStatus))
	if conf.Agent.Enabled {
		routers.Post("/frame", http.HandlerFunc(frameController.Describe))
	}
	if conf.Transcribe.Enabled {
		routers.Post("/transcribe", http.HandlerFunc(transcribeController.Stream))
	}
	return routers
}
