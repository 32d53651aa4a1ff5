package providers

import (
	"fmt"
	"github.com/spf13/viper"
	"nonomi/internal/structures"
	"path/filepath"
	"strings"
	"time"
)

func setDefaults() {
	viper.SetDefault("poller.interval", 3*time.Second)
	viper.SetDefault("poller.timeout", 10*time.Second)
	viper.SetDefault("dispatch.injShowsWebSurface", true)
	viper.SetDefault("audio.enabled", true)
	viper.SetDefault("audio.cacheTTL", 5*time.Minute)
	viper.SetDefault("widget.sanitize", true)
	viper.SetDefault("agent.timeout", 30*time.Second)
	viper.SetDefault("agent.prompt", "You are looking through the wearer's eyes. Describe what you see in 20 to 50 words.")
	viper.SetDefault("transcribe.url", "https://api.siliconflow.cn/v1/audio/transcriptions")
	viper.SetDefault("transcribe.model", "FunAudioLLM/SenseVoiceSmall")
	viper.SetDefault("transcribe.timeout", 30*time.Second)
	viper.SetDefault("webServer.host", "127.0.0.1")
	viper.SetDefault("webServer.port", 8090)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")
	setDefaults()

	viper.BindEnv("poller.url", "NONOMI_STATUS_URL")
	viper.BindEnv("poller.interval", "NONOMI_POLL_INTERVAL")
	viper.BindEnv("logger.level", "NONOMI_LOG_LEVEL")
	viper.BindEnv("agent.apiKey", "NONOMI_AGENT_API_KEY")
	viper.BindEnv("transcribe.apiKey", "NONOMI_TRANSCRIBE_API_KEY")
	viper.BindEnv("cache.enabled", "NONOMI_CACHE_ENABLED")
	viper.BindEnv("cache.size", "NONOMI_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "NoNoMiStatusDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
