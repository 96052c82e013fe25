package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/Alturino/wintercollection/internal/config"
	"github.com/Alturino/wintercollection/internal/constants"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Get builds the process logger once. Output goes to the rotating file at
// filepath and, unless quiet is set, to stdout as well.
func Get(filepath string, cfg config.Application, quiet bool) zerolog.Logger {
	once.Do(func() {
		zerolog.DurationFieldUnit = time.Microsecond
		zerolog.ErrorFieldName = "error"
		zerolog.ErrorStackFieldName = "stack-trace"
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.LevelFieldName = "level"
		zerolog.MessageFieldName = "message"
		zerolog.TimestampFieldName = "timestamp"

		logLevel := zerolog.InfoLevel
		if cfg.Env == "development" {
			logLevel = zerolog.TraceLevel
		}

		fileWriter := &lumberjack.Logger{
			Filename:   filepath,
			MaxSize:    100,
			MaxBackups: 3,
			Compress:   true,
		}
		var output io.Writer = zerolog.MultiLevelWriter(os.Stdout, fileWriter)
		if quiet {
			output = fileWriter
		}

		logger = zerolog.New(output).
			Level(logLevel).
			Hook(AttachTraceIdFromContext()).
			With().
			Timestamp().
			Caller().
			Stack().
			Int("pid", os.Getpid()).
			Logger()

		logger.Info().
			Str(constants.KEY_TAG, "log Get").
			Str(constants.KEY_PROCESS, "init logger").
			Msg("finish initiating logging")
	})
	return logger
}
