//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"nonomi/internal"
	"nonomi/internal/agent"
	"nonomi/internal/controllers"
	"nonomi/internal/dispatch"
	"nonomi/internal/effects"
	"nonomi/internal/feed"
	"nonomi/internal/providers"
	"nonomi/internal/services"
	"nonomi/internal/status"
	"nonomi/internal/structures"
	"nonomi/internal/transcribe"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, func(), error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		feed.NewHub,
		feed.NewPublisher,

		status.NewContentDecoder,
		status.NewHTTPFetcher,
		status.NewStatusPoller,

		effects.NewFileManager,
		effects.NewAudioPlayer,
		effects.NewWidgetRenderer,
		effects.NewCaptionBoard,
		effects.NewWebSurface,
		effects.NewTransferPanel,
		dispatch.NewPolicy,
		dispatch.NewActionDispatcher,

		services.NewStatusService,
		agent.NewClient,
		transcribe.NewClient,

		controllers.NewStatusController,
		controllers.NewFrameController,
		controllers.NewTranscribeController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil, nil
}
