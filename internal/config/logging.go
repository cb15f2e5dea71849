package config

// LogConfig controls the global zerolog logger
type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

func GetLogConfig() LogConfig {
	return LogConfig{
		Level:      GetEnvOrDefault("LOG_LEVEL", "info"),
		Format:     GetEnvOrDefault("LOG_FORMAT", "console"),
		File:       GetEnvOrDefault("LOG_FILE", ""),
		MaxSizeMB:  parseEnvInt("LOG_FILE_MAX_SIZE_MB", 50),
		MaxBackups: parseEnvInt("LOG_FILE_MAX_BACKUPS", 3),
	}
}
