// Package applog configures zerolog for the launcher and adapts it to the
// Wails logger interface so host and application logs share one sink.
package applog

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wailsapp/wails/v2/pkg/logger"
)

// Setup installs a console logger writing to w as the global and default
// context logger and returns it.
func Setup(w io.Writer, debug bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	l := zerolog.New(output).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &l
	log.Logger = l
	return l
}

// WailsLogger implements logger.Logger on top of zerolog.
type WailsLogger struct {
	l zerolog.Logger
}

var _ logger.Logger = (*WailsLogger)(nil)

// NewWailsLogger tags every entry with component=wails.
func NewWailsLogger(l zerolog.Logger) *WailsLogger {
	return &WailsLogger{l: l.With().Str("component", "wails").Logger()}
}

func (w *WailsLogger) Print(message string)   { w.l.Log().Msg(message) }
func (w *WailsLogger) Trace(message string)   { w.l.Trace().Msg(message) }
func (w *WailsLogger) Debug(message string)   { w.l.Debug().Msg(message) }
func (w *WailsLogger) Info(message string)    { w.l.Info().Msg(message) }
func (w *WailsLogger) Warning(message string) { w.l.Warn().Msg(message) }
func (w *WailsLogger) Error(message string)   { w.l.Error().Msg(message) }
func (w *WailsLogger) Fatal(message string)   { w.l.Fatal().Msg(message) }
