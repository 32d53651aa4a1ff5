package effects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"nonomi/internal/dispatch/interfaces"
	feed "nonomi/internal/feed/interfaces"
	"nonomi/internal/models"
	"nonomi/internal/providers"
	"nonomi/internal/structures"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	maxClipBytes   = 20 << 20
	defaultClipExt = ".mp3"
	audioCachePfx  = "audio:"
)

var ErrInvalidVoiceUrl = errors.New("invalid voice url")

// AudioPlayer fetches voice clips and hands them to the headset through
// the feed. Only the most recent Play is ever delivered.
type AudioPlayer struct {
	client    *http.Client
	cache     providers.CacheProviderInterface
	files     *FileManager
	publisher feed.PublisherInterface
	logger    providers.Logger
	outputDir string
	timeout   time.Duration
	enabled   bool

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewAudioPlayer(conf *structures.Config, cache providers.CacheProviderInterface, files *FileManager, publisher feed.PublisherInterface, logger providers.Logger) interfaces.AudioPlayer {
	return newAudioPlayer(conf, cache, files, publisher, logger)
}

func newAudioPlayer(conf *structures.Config, cache providers.CacheProviderInterface, files *FileManager, publisher feed.PublisherInterface, logger providers.Logger) *AudioPlayer {
	return &AudioPlayer{
		client:    &http.Client{},
		cache:     cache,
		files:     files,
		publisher: publisher,
		logger:    logger,
		outputDir: conf.Audio.OutputDir,
		timeout:   conf.Poller.Timeout,
		enabled:   conf.Audio.Enabled,
	}
}

// Play starts loading the clip in the background and cancels any load
// still in progress.
func (a *AudioPlayer) Play(voiceUrl string) error {
	if !a.enabled {
		a.logger.Debugf(providers.TypeDispatch, "Audio disabled, skipping %s", voiceUrl)
		return nil
	}

	u, err := url.Parse(voiceUrl)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidVoiceUrl, voiceUrl)
	}

	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	a.cancel = cancel
	a.seq++
	seq := a.seq
	a.wg.Add(1)
	a.mu.Unlock()

	go a.load(ctx, cancel, seq, u)
	return nil
}

func (a *AudioPlayer) Stop() {
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.seq++
	a.mu.Unlock()

	a.publisher.Publish(models.NewFeedEvent(models.FeedAudio, models.AudioPayload{Playing: false}))
}

// Wait blocks until no clip is loading.
func (a *AudioPlayer) Wait() {
	a.wg.Wait()
}

func (a *AudioPlayer) load(ctx context.Context, cancel context.CancelFunc, seq uint64, u *url.URL) {
	defer a.wg.Done()
	defer cancel()

	voiceUrl := u.String()
	data, err := a.fetch(ctx, voiceUrl)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			a.logger.Debugf(providers.TypeDispatch, "Clip %s superseded", voiceUrl)
			return
		}
		a.logger.Errorf(providers.TypeDispatch, "Unable to load clip %s: %s", voiceUrl, err)
		a.publisher.Publish(models.NewFeedEvent(models.FeedError, models.ErrorPayload{Message: err.Error()}))
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if seq != a.seq {
		a.logger.Debugf(providers.TypeDispatch, "Clip %s superseded", voiceUrl)
		return
	}

	fileName := filepath.Join(a.outputDir, "current"+clipExt(u))
	if err := a.files.WriteFile(fileName, data); err != nil {
		a.logger.Errorf(providers.TypeDispatch, "Unable to write clip %s: %s", fileName, err)
		return
	}

	a.logger.Infof(providers.TypeDispatch, "Playing %s (%d bytes)", voiceUrl, len(data))
	a.publisher.Publish(models.NewFeedEvent(models.FeedAudio, models.AudioPayload{
		Playing: true,
		Url:     voiceUrl,
		Path:    fileName,
		Bytes:   len(data),
	}))
}

func (a *AudioPlayer) fetch(ctx context.Context, voiceUrl string) ([]byte, error) {
	key := audioCachePfx + voiceUrl
	if data, ok := a.cache.Get(key); ok {
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, voiceUrl, nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxClipBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxClipBytes {
		return nil, fmt.Errorf("clip larger than %d bytes", maxClipBytes)
	}

	a.cache.Set(key, data)
	return data, nil
}

func clipExt(u *url.URL) string {
	ext := strings.ToLower(path.Ext(u.Path))
	switch ext {
	case ".mp3", ".wav", ".m4a", ".aac", ".ogg", ".opus":
		return ext
	}
	return defaultClipExt
}
