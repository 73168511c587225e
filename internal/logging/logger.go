package logging

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// LogLevel определяет уровни логирования
type LogLevel int32

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
	FATAL
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает имя уровня без учёта регистра ("info", "WARN", ...)
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO", "":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	case "FATAL":
		return FATAL, nil
	default:
		return INFO, fmt.Errorf("неизвестный уровень логирования: %q", name)
	}
}

// Logger представляет систему логирования компонента.
// В консоль пишутся сообщения от minConsoleLevel, в файл - от minFileLevel.
type Logger struct {
	component       string
	consoleLogger   *log.Logger
	fileLogger      *log.Logger
	file            *os.File
	minConsoleLevel atomic.Int32
	minFileLevel    atomic.Int32
}

var (
	// Каталог файлов логов; пустой - только консоль
	logDir   string
	logDirMu sync.RWMutex

	// Уровень консоли для новых логгеров
	consoleLevel atomic.Int32

	defaultLogger   *Logger
	defaultLoggerMu sync.RWMutex
)

func init() {
	consoleLevel.Store(int32(INFO))
	defaultLogger = NewConsoleLogger("")
}

func prefix(component string) string {
	if component == "" {
		return ""
	}
	return "[" + component + "] "
}

// NewConsoleLogger создаёт логгер без файла
func NewConsoleLogger(component string) *Logger {
	l := &Logger{
		component:     component,
		consoleLogger: log.New(os.Stdout, prefix(component), log.LstdFlags),
	}
	l.minConsoleLevel.Store(consoleLevel.Load())
	l.minFileLevel.Store(int32(TRACE))
	return l
}

// NewLogger создаёт логгер компонента. Если каталог логов задан через
// InitDefaultLogger, сообщения дублируются в файл <dir>/<component>_<время>.log.
func NewLogger(component string) (*Logger, error) {
	l := NewConsoleLogger(component)

	logDirMu.RLock()
	dir := logDir
	logDirMu.RUnlock()
	if dir == "" {
		return l, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", dir, err)
	}

	name := component
	if name == "" {
		name = "server"
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(dir, fmt.Sprintf("%s_%s.log", name, timestamp))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
	}

	l.file = file
	l.fileLogger = log.New(file, prefix(component), log.LstdFlags)
	return l, nil
}

// InitDefaultLogger включает файловые логи в каталоге dir и заменяет
// логгер по умолчанию.
func InitDefaultLogger(component, dir string) error {
	logDirMu.Lock()
	logDir = dir
	logDirMu.Unlock()

	l, err := NewLogger(component)
	if err != nil {
		return err
	}

	defaultLoggerMu.Lock()
	old := defaultLogger
	defaultLogger = l
	defaultLoggerMu.Unlock()

	return old.Close()
}

// CloseDefaultLogger закрывает файл логгера по умолчанию и все логгеры компонентов
func CloseDefaultLogger() {
	logDirMu.Lock()
	logDir = ""
	logDirMu.Unlock()

	defaultLoggerMu.Lock()
	old := defaultLogger
	defaultLogger = NewConsoleLogger("")
	defaultLoggerMu.Unlock()

	old.Close()
	GetLoggerManager().CloseAll()
}

// SetLevel задаёт минимальный уровень консольного вывода для всех логгеров
func SetLevel(level LogLevel) {
	consoleLevel.Store(int32(level))
	current().SetLevels(level, TRACE)
	GetLoggerManager().setConsoleLevel(level)
}

func current() *Logger {
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// SetLevels задаёт минимальные уровни консоли и файла
func (l *Logger) SetLevels(console, file LogLevel) {
	l.minConsoleLevel.Store(int32(console))
	l.minFileLevel.Store(int32(file))
}

// Enabled сообщает, попадёт ли сообщение уровня level хоть в один вывод
func (l *Logger) Enabled(level LogLevel) bool {
	if int32(level) >= l.minConsoleLevel.Load() {
		return true
	}
	return l.fileLogger != nil && int32(level) >= l.minFileLevel.Load()
}

// Close закрывает файл логов
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.fileLogger = nil
	return err
}

func (l *Logger) logMessage(level LogLevel, format string, args ...interface{}) {
	message := fmt.Sprintf("[%s] %s", level.String(), fmt.Sprintf(format, args...))

	if l.fileLogger != nil && int32(level) >= l.minFileLevel.Load() {
		l.fileLogger.Println(message)
	}
	if int32(level) >= l.minConsoleLevel.Load() {
		l.consoleLogger.Println(message)
	}
}

// Trace логирует сообщение уровня TRACE
func (l *Logger) Trace(format string, args ...interface{}) { l.logMessage(TRACE, format, args...) }

// Debug логирует сообщение уровня DEBUG
func (l *Logger) Debug(format string, args ...interface{}) { l.logMessage(DEBUG, format, args...) }

// Info логирует сообщение уровня INFO
func (l *Logger) Info(format string, args ...interface{}) { l.logMessage(INFO, format, args...) }

// Warn логирует сообщение уровня WARN
func (l *Logger) Warn(format string, args ...interface{}) { l.logMessage(WARN, format, args...) }

// Error логирует сообщение уровня ERROR
func (l *Logger) Error(format string, args ...interface{}) { l.logMessage(ERROR, format, args...) }

// Fatal логирует сообщение и завершает процесс
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.logMessage(FATAL, format, args...)
	l.Close()
	os.Exit(1)
}

// Trace логирует через логгер по умолчанию
func Trace(format string, args ...interface{}) { current().Trace(format, args...) }

// Debug логирует через логгер по умолчанию
func Debug(format string, args ...interface{}) { current().Debug(format, args...) }

// Info логирует через логгер по умолчанию
func Info(format string, args ...interface{}) { current().Info(format, args...) }

// Warn логирует через логгер по умолчанию
func Warn(format string, args ...interface{}) { current().Warn(format, args...) }

// Error логирует через логгер по умолчанию
func Error(format string, args ...interface{}) { current().Error(format, args...) }

// Fatal логирует через логгер по умолчанию и завершает процесс
func Fatal(format string, args ...interface{}) { current().Fatal(format, args...) }

// HexDump создает hex дамп данных
func HexDump(data []byte) string {
	if len(data) == 0 {
		return "No data"
	}

	// Ограничиваем размер дампа до 256 байт
	size := len(data)
	if size > 256 {
		size = 256
	}

	return hex.Dump(data[:size])
}
