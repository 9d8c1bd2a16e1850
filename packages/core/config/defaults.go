package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:         30000, // 30 seconds
		FollowRedirects: boolPtr(true),
		MaxRedirects:    10,
		ValidateSSL:     boolPtr(true),
		Output:          "console",
		LogLevel:        "info",
		Bail:            boolPtr(false),
		Verbose:         boolPtr(false),
		NoColor:         boolPtr(false),
	}
}
