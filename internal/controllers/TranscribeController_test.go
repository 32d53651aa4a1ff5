package controllers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"nonomi/internal/structures"
	"nonomi/internal/testutil"
	"nonomi/internal/transcribe"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranscriber struct {
	mu      sync.Mutex
	results map[string]string
	fails   map[string]error
	seen    []string
	bodies  map[string][]byte
}

func (f *fakeTranscriber) Transcribe(_ context.Context, chunk transcribe.Chunk) (string, error) {
	data, _ := io.ReadAll(chunk.Body)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, chunk.Filename)
	if f.bodies == nil {
		f.bodies = make(map[string][]byte)
	}
	f.bodies[chunk.Filename] = data
	if err := f.fails[chunk.Filename]; err != nil {
		return "", err
	}
	return f.results[chunk.Filename], nil
}

type audioPart struct {
	name string
	data []byte
}

func multipartAudio(t *testing.T, field string, parts ...audioPart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		fw, err := mw.CreateFormFile(field, p.name)
		require.NoError(t, err)
		_, err = fw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postAudio(tc *TranscribeController, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	tc.Stream(rr, req)
	return rr
}

func TestTranscribe_StreamsOneEventPerChunkInOrder(t *testing.T) {
	ft := &fakeTranscriber{results: map[string]string{"1.wav": "你好", "2.wav": "second\nline"}}
	tc := NewTranscribeController(&testutil.MockLogger{}, ft)

	body, ct := multipartAudio(t, "audio", audioPart{"1.wav", []byte("aaa")}, audioPart{"2.wav", []byte("bbb")})
	rr := postAudio(tc, body, ct)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rr.Header().Get("Cache-Control"))
	assert.Equal(t, "data: 你好\n\ndata: second\ndata: line\n\n", rr.Body.String())
	assert.Equal(t, []string{"1.wav", "2.wav"}, ft.seen)
	assert.Equal(t, []byte("aaa"), ft.bodies["1.wav"])
	assert.True(t, rr.Flushed)
}

func TestTranscribe_FailedChunkBecomesErrorEvent(t *testing.T) {
	ft := &fakeTranscriber{
		results: map[string]string{"2.wav": "still here"},
		fails:   map[string]error{"1.wav": errors.New("upstream 500: secret detail")},
	}
	logger := &testutil.MockLogger{}
	tc := NewTranscribeController(logger, ft)

	body, ct := multipartAudio(t, "audio", audioPart{"1.wav", []byte("a")}, audioPart{"2.wav", []byte("b")})
	rr := postAudio(tc, body, ct)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "event: error\ndata: transcription failed\n\ndata: still here\n\n", rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "secret")
	assert.True(t, logger.Contains("warn", "secret detail"))
}

func TestTranscribe_EmptyChunkReported(t *testing.T) {
	ft := &fakeTranscriber{}
	tc := NewTranscribeController(&testutil.MockLogger{}, ft)

	body, ct := multipartAudio(t, "audio", audioPart{"empty.wav", nil})
	rr := postAudio(tc, body, ct)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "event: error\ndata: "+transcribe.ErrEmptyChunk.Error()+"\n\n", rr.Body.String())
	assert.Empty(t, ft.seen)
}

func TestTranscribe_NoAudioField(t *testing.T) {
	tc := NewTranscribeController(&testutil.MockLogger{}, &fakeTranscriber{})

	body, ct := multipartAudio(t, "file", audioPart{"1.wav", []byte("a")})
	rr := postAudio(tc, body, ct)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "no audio chunks")
}

func TestTranscribe_NotMultipart(t *testing.T) {
	tc := NewTranscribeController(&testutil.MockLogger{}, &fakeTranscriber{})

	rr := postAudio(tc, bytes.NewReader([]byte("raw")), "application/octet-stream")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTranscribe_DisabledRelay(t *testing.T) {
	tc := NewTranscribeController(&testutil.MockLogger{}, transcribe.NewClient(&structures.Config{}, &testutil.MockLogger{}))

	body, ct := multipartAudio(t, "audio", audioPart{"1.wav", []byte("a")})
	rr := postAudio(tc, body, ct)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "event: error\ndata: "+transcribe.ErrDisabled.Error()+"\n\n", rr.Body.String())
}

func TestTranscribe_AgainstUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"heard ` + hdr.Filename + `"}`))
	}))
	defer upstream.Close()

	conf := &structures.Config{Transcribe: structures.TranscribeConfig{
		Enabled: true,
		Url:     upstream.URL + "/v1",
		Model:   "FunAudioLLM/SenseVoiceSmall",
	}}
	tc := NewTranscribeController(&testutil.MockLogger{}, transcribe.NewClient(conf, &testutil.MockLogger{}))

	body, ct := multipartAudio(t, "audio", audioPart{"a.wav", []byte("1")}, audioPart{"b.wav", []byte("2")})
	rr := postAudio(tc, body, ct)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "data: heard a.wav\n\ndata: heard b.wav\n\n", rr.Body.String())
}
