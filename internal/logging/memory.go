package logging

import "os"

// Entry is a single recorded log message
type Entry struct {
	Level  Level
	Msg    string
	Err    error
	Fields Fields
}

// MemoryLogger keeps log entries in memory.
// Children created with WithFields append to the same entry list.
type MemoryLogger struct {
	entries *[]Entry
	level   *Level
	fields  Fields
	exit    func(int)
}

// NewMemoryLogger creates an empty MemoryLogger that records every level
func NewMemoryLogger() *MemoryLogger {
	level := DebugLevel
	return &MemoryLogger{
		entries: &[]Entry{},
		level:   &level,
		fields:  Fields{},
		exit:    os.Exit,
	}
}

// Entries returns the recorded entries
func (m *MemoryLogger) Entries() []Entry {
	return *m.entries
}

// Count returns the number of recorded entries with the given level
func (m *MemoryLogger) Count(level Level) int {
	n := 0
	for _, e := range *m.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

func (m *MemoryLogger) record(level Level, err error, msg string, fields ...Fields) {
	if level < *m.level {
		return
	}
	*m.entries = append(*m.entries, Entry{
		Level:  level,
		Msg:    msg,
		Err:    err,
		Fields: mergeFields(m.fields, fields...),
	})
}

func (m *MemoryLogger) Debug(msg string, fields ...Fields) {
	m.record(DebugLevel, nil, msg, fields...)
}

func (m *MemoryLogger) Info(msg string, fields ...Fields) {
	m.record(InfoLevel, nil, msg, fields...)
}

func (m *MemoryLogger) Warn(msg string, fields ...Fields) {
	m.record(WarnLevel, nil, msg, fields...)
}

func (m *MemoryLogger) Error(err error, msg string, fields ...Fields) {
	m.record(ErrorLevel, err, msg, fields...)
}

// Fatal records the entry and exits, like DefaultLogger.Fatal
func (m *MemoryLogger) Fatal(err error, msg string, fields ...Fields) {
	m.record(FatalLevel, err, msg, fields...)
	m.exit(1)
}

func (m *MemoryLogger) WithFields(fields Fields) Logger {
	return &MemoryLogger{
		entries: m.entries,
		level:   m.level,
		fields:  mergeFields(m.fields, fields),
		exit:    m.exit,
	}
}

func (m *MemoryLogger) SetLevel(level Level) {
	*m.level = level
}
