package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

type entry struct {
	Level     string                 `json:"level"`
	Timestamp string                 `json:"timestamp"`
	Component string                 `json:"component,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

type sink struct {
	mu           sync.Mutex
	level        LogLevel
	file         *os.File
	filePath     string
	maxSizeBytes int64
	maxAgeDays   int
	currentSize  int64
}

var std = &sink{level: INFO}

func SetLevel(level LogLevel) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.level = level
}

// EnableFileLogging mirrors console output into a JSON-lines file.
// maxSizeMB <= 0 disables rotation; maxAgeDays <= 0 disables cleanup of
// rotated files.
func EnableFileLogging(filePath string, maxSizeMB, maxAgeDays int) error {
	if strings.HasPrefix(filePath, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			filePath = filepath.Join(home, filePath[2:])
		}
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	var size int64
	if stat, err := file.Stat(); err == nil {
		size = stat.Size()
	}

	std.mu.Lock()
	defer std.mu.Unlock()
	if std.file != nil {
		std.file.Close()
	}
	std.file = file
	std.filePath = filePath
	std.maxSizeBytes = int64(maxSizeMB) * 1024 * 1024
	std.maxAgeDays = maxAgeDays
	std.currentSize = size

	log.Println("File logging enabled:", filePath)
	return nil
}

func DisableFileLogging() {
	std.mu.Lock()
	defer std.mu.Unlock()
	if std.file != nil {
		std.file.Close()
		std.file = nil
	}
}

func (s *sink) rotateLocked() {
	s.file.Close()
	rotated := fmt.Sprintf("%s.%s", s.filePath, time.Now().Format("20060102-150405"))
	if err := os.Rename(s.filePath, rotated); err != nil {
		log.Printf("Failed to rotate log file: %v", err)
	}

	file, err := os.OpenFile(s.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Printf("Failed to reopen log file after rotation: %v", err)
		s.file = nil
		return
	}
	s.file = file
	s.currentSize = 0

	go cleanRotated(s.filePath, s.maxAgeDays)
}

func cleanRotated(filePath string, maxAgeDays int) {
	if maxAgeDays <= 0 {
		return
	}
	dir := filepath.Dir(filePath)
	base := filepath.Base(filePath)
	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), base+".") {
			continue
		}
		info, err := e.Info()
		if err == nil && info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(dir, e.Name()))
		}
	}
}

func logMessage(level LogLevel, component, message string, fields map[string]interface{}) {
	std.mu.Lock()
	if level < std.level {
		std.mu.Unlock()
		return
	}

	e := entry{
		Level:     levelNames[level],
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Component: component,
		Message:   message,
		Fields:    fields,
	}

	if std.file != nil {
		if std.maxSizeBytes > 0 && std.currentSize >= std.maxSizeBytes {
			std.rotateLocked()
		}
		if std.file != nil {
			if data, err := json.Marshal(e); err == nil {
				n, werr := std.file.WriteString(string(data) + "\n")
				if werr == nil {
					std.currentSize += int64(n)
				}
			}
		}
	}
	std.mu.Unlock()

	comp := ""
	if component != "" {
		comp = " " + component + ":"
	}
	log.Printf("[%s] [%s]%s %s%s", e.Timestamp, e.Level, comp, message, formatFields(fields))

	if level == FATAL {
		os.Exit(1)
	}
}

func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return fmt.Sprintf(" {%s}", strings.Join(parts, ", "))
}

func Debug(message string)             { logMessage(DEBUG, "", message, nil) }
func DebugC(component, message string) { logMessage(DEBUG, component, message, nil) }
func Info(message string)              { logMessage(INFO, "", message, nil) }
func InfoC(component, message string)  { logMessage(INFO, component, message, nil) }
func Warn(message string)              { logMessage(WARN, "", message, nil) }
func WarnC(component, message string)  { logMessage(WARN, component, message, nil) }
func Error(message string)             { logMessage(ERROR, "", message, nil) }
func ErrorC(component, message string) { logMessage(ERROR, component, message, nil) }
func Fatal(message string)             { logMessage(FATAL, "", message, nil) }
func FatalC(component, message string) { logMessage(FATAL, component, message, nil) }

func DebugCF(component, message string, fields map[string]interface{}) {
	logMessage(DEBUG, component, message, fields)
}

func InfoCF(component, message string, fields map[string]interface{}) {
	logMessage(INFO, component, message, fields)
}

func WarnCF(component, message string, fields map[string]interface{}) {
	logMessage(WARN, component, message, fields)
}

func ErrorCF(component, message string, fields map[string]interface{}) {
	logMessage(ERROR, component, message, fields)
}

func FatalCF(component, message string, fields map[string]interface{}) {
	logMessage(FATAL, component, message, fields)
}
