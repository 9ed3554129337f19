package artifact

type Logger interface {
	Warn(msg string, fields map[string]any)
}
