package config

// Config represents the complete configuration structure
type Config struct {
	Slowly  SlowlyConfig  `mapstructure:"slowly"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SlowlyConfig holds Slowly API connection details
type SlowlyConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
	Email   string `mapstructure:"email"`
	Proxy   string `mapstructure:"proxy"`
}

// FilterConfig contains named filter presets and the default
// expression used when no flag is given
type FilterConfig struct {
	DefaultExpression string            `mapstructure:"default"`
	Presets           map[string]string `mapstructure:"presets"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
