package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	tmlog "github.com/tendermint/tendermint/libs/log"
)

// Level orders log output; messages below the current level are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

var (
	customLog logger
	mu        sync.RWMutex
)

type logger struct {
	debug *log.Logger
	info  *log.Logger
	err   *log.Logger
	out   io.Writer
	level Level
	dir   string
}

func InitLogger() {
	mu.Lock()
	defer mu.Unlock()

	customLog = logger{
		debug: log.New(os.Stdout, "[DEBUG] ", 0),
		info:  log.New(os.Stdout, "[INFOM] ", 0),
		err:   log.New(os.Stderr, "[ERROR] ", 0),
		out:   os.Stdout,
		level: LevelInfo,
	}
}

// ResetLogger moves all output to a per-process file under <home>/logs.
func ResetLogger(home string) {
	if home == "" {
		osHome, err := os.UserHomeDir()
		if err != nil {
			Fatalf("Failed to get user home directory: %v", err)
		}
		home = filepath.Join(osHome, ".rateoracled")
	}

	dir := filepath.Join(home, "logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		Fatalf("Failed to create log directory %s: %v", dir, err)
	}

	name := fmt.Sprintf("%s.%d.log", filepath.Base(os.Args[0]), os.Getpid())
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		Fatalf("Failed to create log file: %v", err)
	}

	Infof("From now on, all logs will be written to %s", path)

	format := log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile

	mu.Lock()
	defer mu.Unlock()
	customLog.debug = log.New(file, "[DEBUG] ", format)
	customLog.info = log.New(file, "[INFOM] ", format)
	customLog.err = log.New(file, "[ERROR] ", format)
	customLog.out = file
	customLog.dir = dir
}

// SetLevel accepts "debug", "info" or "error".
func SetLevel(level string) error {
	var lvl Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = LevelDebug
	case "info", "":
		lvl = LevelInfo
	case "error":
		lvl = LevelError
	default:
		return fmt.Errorf("unknown log level: %s", level)
	}

	mu.Lock()
	customLog.level = lvl
	mu.Unlock()
	return nil
}

func Dir() string {
	mu.RLock()
	defer mu.RUnlock()
	return customLog.dir
}

// TMLogger returns a tendermint logger writing to the same destination, for
// the module keeper running inside the daemon.
func TMLogger() tmlog.Logger {
	mu.RLock()
	defer mu.RUnlock()

	out := customLog.out
	if out == nil {
		out = os.Stdout
	}

	logger := tmlog.NewTMLogger(tmlog.NewSyncWriter(out))
	if customLog.level > LevelDebug {
		return tmlog.NewFilter(logger, tmlog.AllowInfo())
	}
	return logger
}

func output(l *log.Logger, lvl Level, msg string) {
	mu.RLock()
	defer mu.RUnlock()
	if l == nil || lvl < customLog.level {
		return
	}
	_ = l.Output(3, msg)
}

func Debug(v ...any) {
	output(customLog.debug, LevelDebug, fmt.Sprint(v...))
}

func Debugf(format string, v ...any) {
	output(customLog.debug, LevelDebug, fmt.Sprintf(format, v...))
}

func Info(v ...any) {
	output(customLog.info, LevelInfo, fmt.Sprint(v...))
}

func Infof(format string, v ...any) {
	output(customLog.info, LevelInfo, fmt.Sprintf(format, v...))
}

func Error(v ...any) {
	output(customLog.err, LevelError, fmt.Sprint(v...))
}

func Errorf(format string, v ...any) {
	output(customLog.err, LevelError, fmt.Sprintf(format, v...))
}

func Fatal(v ...any) {
	output(customLog.err, LevelError, fmt.Sprint(v...))
	log.Fatal(v...)
}

func Fatalf(format string, v ...any) {
	output(customLog.err, LevelError, fmt.Sprintf(format, v...))
	log.Fatalf(format, v...)
}
