package logger

// LevelForVerbosity maps a -v count to a console log level. The log file,
// when enabled, always records at debug.
func LevelForVerbosity(count int) string {
	switch {
	case count <= 0:
		return "info"
	default:
		return "debug"
	}
}

// ConfigureFromVerbosity wires the global logger from CLI-level knobs.
func ConfigureFromVerbosity(count int, logFile string, json bool) {
	Configure(Options{
		Level: LevelForVerbosity(count),
		JSON:  json,
		File:  logFile,
	})
}
