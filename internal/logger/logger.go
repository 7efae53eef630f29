package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options controls how the global logger is initialized.
type Options struct {
	// Verbose lowers the level to debug.
	Verbose bool
	// NoColor disables ANSI colors in the console writer.
	NoColor bool
	// Writer overrides the output destination. Defaults to stderr.
	Writer io.Writer
}

// Init configures the global zerolog logger for CLI use.
func Init(opts Options) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
		NoColor:    opts.NoColor,
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	log.Logger = zerolog.New(console).With().Timestamp().Logger().Level(level)
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

// ToolCall logs a model-requested tool invocation.
func ToolCall(name, args string) {
	log.Info().Str("tool", name).Str("args", args).Msg("tool call")
}

// ToolResult logs the outcome of a tool invocation.
func ToolResult(name string, success bool, d time.Duration) {
	log.Info().Str("tool", name).Bool("success", success).Dur("took", d).Msg("tool result")
}

// ModelTurn logs one round trip to the model.
func ModelTurn(turn int, model string) {
	log.Debug().Int("turn", turn).Str("model", model).Msg("calling model")
}
