package effects

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"nonomi/internal/models"
	"nonomi/internal/structures"
	"nonomi/internal/testutil"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func audioConfig(dir string) *structures.Config {
	return &structures.Config{
		Poller: structures.PollerConfig{Timeout: time.Second},
		Audio:  structures.AudioConfig{Enabled: true, OutputDir: dir},
	}
}

func newTestAudioPlayer(t *testing.T) (*AudioPlayer, *testutil.MockPublisher, *testutil.MockCache, string) {
	t.Helper()
	dir := t.TempDir()
	pub := &testutil.MockPublisher{}
	cache := testutil.NewMockCache()
	a := newAudioPlayer(audioConfig(dir), cache, NewFileManager(), pub, &testutil.MockLogger{})
	return a, pub, cache, dir
}

func TestAudioPlayer_PlayDownloadsAndPublishes(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("ID3-clip"))
	}))
	defer srv.Close()

	a, pub, cache, dir := newTestAudioPlayer(t)

	require.NoError(t, a.Play(srv.URL+"/voice/a.wav"))
	a.Wait()

	data, err := os.ReadFile(filepath.Join(dir, "current.wav"))
	require.NoError(t, err)
	assert.Equal(t, "ID3-clip", string(data))

	events := pub.OfType(models.FeedAudio)
	require.Len(t, events, 1)
	payload := events[0].Payload.(models.AudioPayload)
	assert.True(t, payload.Playing)
	assert.Equal(t, 8, payload.Bytes)

	_, cached := cache.Get(audioCachePfx + srv.URL + "/voice/a.wav")
	assert.True(t, cached)

	require.NoError(t, a.Play(srv.URL+"/voice/a.wav"))
	a.Wait()
	assert.Equal(t, int32(1), hits.Load())
	assert.Len(t, pub.OfType(models.FeedAudio), 2)
}

func TestAudioPlayer_NewPlaySupersedesSlowDownload(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow.mp3" {
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
		}
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()
	defer close(release)

	a, pub, _, dir := newTestAudioPlayer(t)

	require.NoError(t, a.Play(srv.URL+"/slow.mp3"))
	require.NoError(t, a.Play(srv.URL+"/fast.mp3"))
	a.Wait()

	events := pub.OfType(models.FeedAudio)
	require.Len(t, events, 1)
	assert.Equal(t, srv.URL+"/fast.mp3", events[0].Payload.(models.AudioPayload).Url)

	data, err := os.ReadFile(filepath.Join(dir, "current.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "/fast.mp3", string(data))
	assert.Empty(t, pub.OfType(models.FeedError))
}

func TestAudioPlayer_StopPublishesSilence(t *testing.T) {
	a, pub, _, _ := newTestAudioPlayer(t)

	a.Stop()

	events := pub.OfType(models.FeedAudio)
	require.Len(t, events, 1)
	assert.False(t, events[0].Payload.(models.AudioPayload).Playing)
}

func TestAudioPlayer_FailedDownloadPublishesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	a, pub, _, _ := newTestAudioPlayer(t)

	require.NoError(t, a.Play(srv.URL+"/missing.mp3"))
	a.Wait()

	assert.Empty(t, pub.OfType(models.FeedAudio))
	errs := pub.OfType(models.FeedError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Payload.(models.ErrorPayload).Message, "404")
}

func TestAudioPlayer_RejectsNonHttpUrl(t *testing.T) {
	a, _, _, _ := newTestAudioPlayer(t)

	assert.ErrorIs(t, a.Play("file:///etc/passwd"), ErrInvalidVoiceUrl)
	assert.ErrorIs(t, a.Play("not a url"), ErrInvalidVoiceUrl)
}

func TestAudioPlayer_DisabledIsNoop(t *testing.T) {
	conf := audioConfig(t.TempDir())
	conf.Audio.Enabled = false
	pub := &testutil.MockPublisher{}
	a := newAudioPlayer(conf, testutil.NewMockCache(), NewFileManager(), pub, &testutil.MockLogger{})

	require.NoError(t, a.Play("http://example.com/a.mp3"))
	a.Wait()
	assert.Empty(t, pub.Events)
}

func TestClipExt(t *testing.T) {
	cases := map[string]string{
		"http://x/a.MP3":        ".mp3",
		"http://x/a.ogg?sig=1":  ".ogg",
		"http://x/voice":        ".mp3",
		"http://x/a.exe":        ".mp3",
		"http://x/dir.wav/clip": ".mp3",
	}
	for raw, want := range cases {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, want, clipExt(u), raw)
	}
}
