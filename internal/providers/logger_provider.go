package providers

import (
	"fmt"
	"io"
	"nonomi/internal/structures"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

type TypeEnum int

const (
	TypeApp TypeEnum = iota
	TypePoll
	TypeDispatch
	TypeFeed
	TypeGet
	TypePost
)

var typeNames = map[TypeEnum]string{
	TypeApp:      "app",
	TypePoll:     "poll",
	TypeDispatch: "dispatch",
	TypeFeed:     "feed",
	TypeGet:      "get",
	TypePost:     "post",
}

func (t TypeEnum) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

type Logger interface {
	Errorf(t TypeEnum, format string, args ...interface{})
	Warnf(t TypeEnum, format string, args ...interface{})
	Debugf(t TypeEnum, format string, args ...interface{})
	Infof(t TypeEnum, format string, args ...interface{})
	Fatalf(t TypeEnum, format string, args ...interface{})
	Close()
}

// LogProvider routes application messages to app.log and request
// messages to access.log. Debug mode mirrors everything to the console.
type LogProvider struct {
	app    zerolog.Logger
	access zerolog.Logger
	files  []*os.File
}

func GetLogTypeByRequestType(method string) TypeEnum {
	if method == "POST" {
		return TypePost
	}
	return TypeGet
}

func (l *LogProvider) logger(t TypeEnum) *zerolog.Logger {
	if t == TypeGet || t == TypePost {
		return &l.access
	}
	return &l.app
}

func (l *LogProvider) Errorf(t TypeEnum, format string, args ...interface{}) {
	l.logger(t).Error().Str("type", t.String()).Msgf(format, args...)
}

func (l *LogProvider) Warnf(t TypeEnum, format string, args ...interface{}) {
	l.logger(t).Warn().Str("type", t.String()).Msgf(format, args...)
}

func (l *LogProvider) Debugf(t TypeEnum, format string, args ...interface{}) {
	l.logger(t).Debug().Str("type", t.String()).Msgf(format, args...)
}

func (l *LogProvider) Infof(t TypeEnum, format string, args ...interface{}) {
	l.logger(t).Info().Str("type", t.String()).Msgf(format, args...)
}

func (l *LogProvider) Fatalf(t TypeEnum, format string, args ...interface{}) {
	l.logger(t).Fatal().Str("type", t.String()).Msgf(format, args...)
}

func (l *LogProvider) Close() {
	for _, f := range l.files {
		_ = f.Close()
	}
	l.files = nil
}

func openLogFile(dir, name string, mode uint32) (*os.File, error) {
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, os.FileMode(mode))
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, nil
}

func NewLogProvider(conf *structures.Config) (Logger, error) {
	level, err := zerolog.ParseLevel(conf.Logger.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", conf.Logger.Level, err)
	}

	appFile, err := openLogFile(conf.Logger.Dir, "app.log", conf.Logger.Mode)
	if err != nil {
		return nil, err
	}
	accessFile, err := openLogFile(conf.Logger.Dir, "access.log", conf.Logger.Mode)
	if err != nil {
		appFile.Close()
		return nil, err
	}

	var appOut, accessOut io.Writer = appFile, accessFile
	if conf.Debug {
		console := zerolog.ConsoleWriter{Out: os.Stderr}
		appOut = zerolog.MultiLevelWriter(appFile, console)
		accessOut = zerolog.MultiLevelWriter(accessFile, console)
	}

	return &LogProvider{
		app:    zerolog.New(appOut).Level(level).With().Timestamp().Logger(),
		access: zerolog.New(accessOut).Level(level).With().Timestamp().Logger(),
		files:  []*os.File{appFile, accessFile},
	}, nil
}
