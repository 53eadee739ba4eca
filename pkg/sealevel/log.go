package sealevel

import (
	"encoding/base64"
	"strings"
)

// Logger receives program log output for a single transaction.
type Logger interface {
	Log(s string)
}

// LogRecorder keeps every line in order.
type LogRecorder struct {
	Logs []string
}

func (r *LogRecorder) Log(s string) {
	r.Logs = append(r.Logs, s)
}

// LogData emits binary payloads the way sol_log_data does, as a
// base64-encoded "Program data:" line.
func LogData(log Logger, data ...[]byte) {
	if log == nil {
		return
	}
	parts := make([]string, 0, len(data))
	for _, d := range data {
		parts = append(parts, base64.StdEncoding.EncodeToString(d))
	}
	log.Log("Program data: " + strings.Join(parts, " "))
}

func LogMsg(log Logger, msg string) {
	if log == nil {
		return
	}
	log.Log("Program log: " + msg)
}
