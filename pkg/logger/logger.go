package logger

type Logger interface {
	Log(format string, v ...interface{})
	WithPrefix(extraPrefix string) Logger
}
