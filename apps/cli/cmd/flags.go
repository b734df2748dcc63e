package cmd

import (
	"github.com/abdul-hamid-achik/timecheck/packages/core/config"
	"github.com/spf13/pflag"
)

// addConfigFlags registers one flag per configuration key. Load binds them
// by name, so a flag only overrides the file and environment when set.
func addConfigFlags(fs *pflag.FlagSet) {
	d := config.DefaultConfig()
	name := config.FlagName

	fs.String(name("baseURL"), d.BaseURL, "Base URL of the service under test")
	fs.String(name("suite"), d.Suite, "Suite definition, relative to the resource directory")
	fs.String(name("resourceDir"), "", "Directory with the suite, fixtures and schemas (default: bundled resources)")
	fs.String(name("envFile"), "", "Path to .env file with suite variables")
	fs.StringToString(name("variables"), nil, "Override a suite variable, key=value (repeatable)")
	fs.Duration(name("timeout"), d.Timeout, "Request timeout")
	fs.Duration(name("latencyCeiling"), d.LatencyCeiling, "Latency ceiling for every case, replacing latencyUnder (0 keeps the suite's values)")
	fs.Bool(name("followRedirects"), d.FollowRedirects, "Follow HTTP redirects")
	fs.Int(name("maxRedirects"), d.MaxRedirects, "Maximum number of redirects to follow")
	fs.Bool(name("validateSSL"), d.ValidateSSL, "Verify TLS certificates")
	fs.String(name("proxy"), "", "Proxy URL for HTTP requests")
	fs.StringToString(name("headers"), nil, "Default request header, name=value (repeatable)")
	fs.Float64(name("rateLimit"), 0, "Maximum requests per second (0 for no limit)")
	fs.BoolP(name("parallel"), "p", false, "Run cases in parallel")
	fs.Int(name("concurrency"), d.Concurrency, "Number of concurrent requests in parallel mode")
	fs.Bool(name("bail"), false, "Stop after the first failing case")
	fs.StringP(name("filter"), "n", "", "Run only cases matching the name pattern (* wildcards)")
	fs.StringP(name("output"), "o", d.Output, "Output format: console, json, junit, tap")
	fs.String(name("outputFile"), "", "Write output to file (default: stdout)")
	fs.BoolP(name("verbose"), "v", false, "Verbose output")
	fs.Bool(name("noColor"), false, "Disable colored output")
	fs.String(name("logLevel"), d.LogLevel, "Log level: trace, debug, info, warn, error")
	fs.String(name("logFormat"), d.LogFormat, "Log format: text, json")
	fs.String(name("metricsFile"), "", "Write run metrics in Prometheus text format to file")
	fs.String(name("slackWebhook"), "", "Slack incoming webhook URL for run notifications")
	fs.String(name("notifyOn"), d.NotifyOn, "When to notify: always, failure, success, recovery")
}
