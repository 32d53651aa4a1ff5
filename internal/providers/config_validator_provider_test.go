package providers

import (
	"nonomi/internal/structures"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *structures.Config {
	return &structures.Config{
		Poller: structures.PollerConfig{
			Url:      "https://backend.example.com/status.json",
			Interval: 3 * time.Second,
			Timeout:  10 * time.Second,
		},
		Audio: structures.AudioConfig{
			OutputDir: "/tmp/nonomi/audio",
		},
		Widget: structures.WidgetConfig{
			OutputDir: "/tmp/nonomi/widget",
		},
		WebServer: structures.Server{
			Host: "0.0.0.0",
			Port: 8090,
		},
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   "/tmp/logs",
		},
	}
}

func TestConfigValidator_ValidConfig(t *testing.T) {
	v := NewCnfValidator(validConfig())
	assert.NoError(t, v.Validate())
}

func TestConfigValidator_EmptyHost(t *testing.T) {
	c := validConfig()
	c.WebServer.Host = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_ZeroPort(t *testing.T) {
	c := validConfig()
	c.WebServer.Port = 0
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_EmptyLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_InvalidLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = "verbose"
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_MissingStatusUrl(t *testing.T) {
	c := validConfig()
	c.Poller.Url = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_ZeroInterval(t *testing.T) {
	c := validConfig()
	c.Poller.Interval = 0
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_AgentEnabledRequiresUrl(t *testing.T) {
	c := validConfig()
	c.Agent.Enabled = true
	assert.ErrorContains(t, NewCnfValidator(c).Validate(), "agent.url")

	c.Agent.Url = "not a url"
	assert.Error(t, NewCnfValidator(c).Validate())

	c.Agent.Url = "https://agent.example.com/describe"
	assert.NoError(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_AgentDisabledIgnoresUrl(t *testing.T) {
	c := validConfig()
	c.Agent.Url = ""
	assert.NoError(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_TranscribeEnabledRequiresUrl(t *testing.T) {
	c := validConfig()
	c.Transcribe.Enabled = true
	assert.ErrorContains(t, NewCnfValidator(c).Validate(), "transcribe.url")

	c.Transcribe.Url = "https://asr.example.com/v1/audio/transcriptions"
	assert.NoError(t, NewCnfValidator(c).Validate())
}
