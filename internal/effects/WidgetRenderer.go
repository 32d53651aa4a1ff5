package effects

import (
	"fmt"
	"nonomi/internal/dispatch/interfaces"
	feed "nonomi/internal/feed/interfaces"
	"nonomi/internal/models"
	"nonomi/internal/providers"
	"nonomi/internal/structures"
	"path/filepath"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"
)

const (
	widgetFile      = "widget.html"
	digestMaxLength = 160 // runes
)

const widgetDocument = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=%[1]d, height=%[2]d">
<style>html,body{margin:0;padding:0;width:%[1]dpx;height:%[2]dpx;overflow:hidden;background:transparent}</style>
</head>
<body>
%[3]s
</body>
</html>
`

// WidgetRenderer turns the status markup into a standalone document sized
// for the headset overlay.
type WidgetRenderer struct {
	sanitizer *bluemonday.Policy
	converter *converter.Converter
	files     *FileManager
	publisher feed.PublisherInterface
	logger    providers.Logger
	path      string

	mu sync.Mutex
}

func NewWidgetRenderer(conf *structures.Config, files *FileManager, publisher feed.PublisherInterface, logger providers.Logger) interfaces.WidgetRenderer {
	return newWidgetRenderer(conf, files, publisher, logger)
}

func newWidgetRenderer(conf *structures.Config, files *FileManager, publisher feed.PublisherInterface, logger providers.Logger) *WidgetRenderer {
	var sanitizer *bluemonday.Policy
	if conf.Widget.Sanitize {
		sanitizer = bluemonday.UGCPolicy()
		sanitizer.AllowAttrs("style").Globally()
	}

	return &WidgetRenderer{
		sanitizer: sanitizer,
		converter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
		files:     files,
		publisher: publisher,
		logger:    logger,
		path:      filepath.Join(conf.Widget.OutputDir, widgetFile),
	}
}

func (r *WidgetRenderer) Render(html string, width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("invalid widget size %dx%d", width, height)
	}

	markup := html
	if r.sanitizer != nil {
		markup = r.sanitizer.Sanitize(html)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc := fmt.Sprintf(widgetDocument, width, height, markup)
	if err := r.files.WriteFile(r.path, []byte(doc)); err != nil {
		return fmt.Errorf("write widget: %w", err)
	}

	r.logger.Debugf(providers.TypeDispatch, "Widget %dx%d: %s", width, height, r.digest(markup))
	r.publisher.Publish(models.NewFeedEvent(models.FeedWidget, models.WidgetPayload{
		HTML:   markup,
		Width:  width,
		Height: height,
		Path:   r.path,
	}))
	return nil
}

// digest is a one-line plain text preview of the widget for the logs.
func (r *WidgetRenderer) digest(markup string) string {
	md, err := r.converter.ConvertString(markup)
	if err != nil {
		return "(no preview)"
	}

	text := []rune(strings.Join(strings.Fields(md), " "))
	if len(text) > digestMaxLength {
		return string(text[:digestMaxLength]) + "..."
	}
	return string(text)
}
