// Package logger is the leveled logger shared by the staffboard server and
// boardctl. Lines look like
//
//	2024-03-04T08:00:00+09:00 [INFO] schedule: generated collection=schedules events=4
//
// The printf variants take a format; the w variants take key/value pairs.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelFatal: "fatal",
}

func (l Level) String() string {
	if l < LevelDebug || l > LevelFatal {
		return levelNames[LevelInfo]
	}
	return levelNames[l]
}

// ParseLevel is case-insensitive and accepts "warning" for warn. Unknown
// names map to info.
func ParseLevel(name string) Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		return LevelWarn
	}
	for l, n := range levelNames {
		if n == name {
			return Level(l)
		}
	}
	return LevelInfo
}

type state struct {
	mu  sync.RWMutex
	out *log.Logger
	min Level
}

var std = &state{out: log.New(os.Stdout, "", 0), min: LevelInfo}

// Init sets the minimum level that is written.
func Init(name string) {
	std.mu.Lock()
	std.min = ParseLevel(name)
	std.mu.Unlock()
}

// LevelString returns the current minimum level.
func LevelString() string {
	std.mu.RLock()
	defer std.mu.RUnlock()
	return std.min.String()
}

// SetOutput redirects log lines; boardctl sends them to stderr.
func SetOutput(w io.Writer) {
	std.mu.Lock()
	std.out = log.New(w, "", 0)
	std.mu.Unlock()
}

func (s *state) write(l Level, msg string) {
	s.mu.RLock()
	out, min := s.out, s.min
	s.mu.RUnlock()
	if l < min {
		return
	}
	out.Printf("%s [%s] %s", time.Now().Format(time.RFC3339), strings.ToUpper(l.String()), msg)
}

func (s *state) enabled(l Level) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return l >= s.min
}

func Debugf(format string, v ...interface{}) { std.write(LevelDebug, fmt.Sprintf(format, v...)) }
func Infof(format string, v ...interface{})  { std.write(LevelInfo, fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...interface{})  { std.write(LevelWarn, fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...interface{}) { std.write(LevelError, fmt.Sprintf(format, v...)) }

func Warn(msg string) { std.write(LevelWarn, msg) }

// Fatalf always writes, then exits with status 1.
func Fatalf(format string, v ...interface{}) {
	std.mu.RLock()
	out := std.out
	std.mu.RUnlock()
	out.Printf("%s [FATAL] %s", time.Now().Format(time.RFC3339), fmt.Sprintf(format, v...))
	os.Exit(1)
}

// Infow logs msg followed by key=value pairs. A trailing key without a value
// is dropped, as are non-string keys.
func Infow(msg string, kv ...interface{}) { logw(LevelInfo, msg, kv) }

func Warnw(msg string, kv ...interface{}) { logw(LevelWarn, msg, kv) }

// Errorw puts err first under the "err" key.
func Errorw(msg string, err error, kv ...interface{}) {
	logw(LevelError, msg, append([]interface{}{"err", err}, kv...))
}

func logw(l Level, msg string, kv []interface{}) {
	if !std.enabled(l) {
		return
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			fmt.Fprintf(&b, " %s=%v", key, kv[i+1])
		}
	}
	std.write(l, b.String())
}
