package config

import "time"

const (
	DefaultBaseURL        = "https://timeapi.io/api/"
	DefaultSuite          = "timeapi.yaml"
	DefaultTimeout        = 30 * time.Second
	DefaultMaxRedirects   = 10
	DefaultConcurrency    = 5
	DefaultOutput         = "console"
	DefaultLogLevel       = "warn"
	DefaultLogFormat      = "text"
	DefaultNotifyOn       = "failure"
	DefaultLatencyCeiling = time.Duration(0)
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         DefaultBaseURL,
		Suite:           DefaultSuite,
		Timeout:         DefaultTimeout,
		LatencyCeiling:  DefaultLatencyCeiling,
		FollowRedirects: true,
		MaxRedirects:    DefaultMaxRedirects,
		ValidateSSL:     true,
		Headers:         map[string]string{},
		Variables:       map[string]string{},
		Concurrency:     DefaultConcurrency,
		Output:          DefaultOutput,
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
		NotifyOn:        DefaultNotifyOn,
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	d := DefaultConfig()
	return c.BaseURL == d.BaseURL &&
		c.Suite == d.Suite &&
		c.ResourceDir == d.ResourceDir &&
		c.EnvFile == d.EnvFile &&
		len(c.Variables) == 0 &&
		c.Timeout == d.Timeout &&
		c.LatencyCeiling == d.LatencyCeiling &&
		c.FollowRedirects == d.FollowRedirects &&
		c.MaxRedirects == d.MaxRedirects &&
		c.ValidateSSL == d.ValidateSSL &&
		c.Proxy == d.Proxy &&
		len(c.Headers) == 0 &&
		c.RateLimit == d.RateLimit &&
		c.Parallel == d.Parallel &&
		c.Concurrency == d.Concurrency &&
		c.Bail == d.Bail &&
		c.Filter == d.Filter &&
		c.Output == d.Output &&
		c.OutputFile == d.OutputFile &&
		c.Verbose == d.Verbose &&
		c.NoColor == d.NoColor &&
		c.LogLevel == d.LogLevel &&
		c.LogFormat == d.LogFormat &&
		c.MetricsFile == d.MetricsFile &&
		c.SlackWebhook == d.SlackWebhook &&
		c.NotifyOn == d.NotifyOn
}
