package interfaces

// AudioPlayer plays a voice clip. Play replaces whatever is playing.
type AudioPlayer interface {
	Play(url string) error
	Stop()
}

type WidgetRenderer interface {
	Render(html string, width, height int) error
}

type CaptionDisplay interface {
	Show(text string) error
}

// WebSurface displays a URL, e.g. a QR page.
type WebSurface interface {
	Show(url string) error
	Hide() error
}

// TransferUI surfaces the transfer intent for a chain.
type TransferUI interface {
	Show(chain string) error
	Hide() error
}
