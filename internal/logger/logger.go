package logger

import (
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	logrus "github.com/sirupsen/logrus"
)

// Setup configures the process-wide Logrus logger to write to stdout and
// through a rotating file.  Handlers use logrus fields (trip_id, operation)
// on the failure paths that must never be silent, in particular a rollback
// after a successful seat decrement.
func Setup() {
	rotator := &lumberjack.Logger{
		Filename:   "./logs/app.log",
		MaxSize:    10, // megabytes
		MaxBackups: 7,  // keep up to 7 old files
		MaxAge:     7,  // days
		Compress:   true,
	}

	logrus.SetOutput(io.MultiWriter(os.Stdout, rotator))
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	logrus.SetLevel(logrus.InfoLevel)
}

// ReservationLog returns a rotating writer for the queue consumer's
// reservation audit log.  It is separate from the application log so the
// audit trail survives independent of app log rotation pressure.
func ReservationLog() *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   "./logs/reservations.log",
		MaxSize:    10,
		MaxBackups: 14,
		MaxAge:     30,
		Compress:   true,
	}
}
