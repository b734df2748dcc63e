package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TIMECHECK"

// Config represents the timecheck configuration
type Config struct {
	BaseURL         string            `mapstructure:"baseURL" validate:"required,url"`
	Suite           string            `mapstructure:"suite" validate:"required"`
	ResourceDir     string            `mapstructure:"resourceDir" validate:"omitempty,dir"`
	EnvFile         string            `mapstructure:"envFile" validate:"omitempty,file"`
	Variables       map[string]string `mapstructure:"variables"`
	Timeout         time.Duration     `mapstructure:"timeout" validate:"gt=0"`
	LatencyCeiling  time.Duration     `mapstructure:"latencyCeiling" validate:"gte=0"`
	FollowRedirects bool              `mapstructure:"followRedirects"`
	MaxRedirects    int               `mapstructure:"maxRedirects" validate:"gte=0"`
	ValidateSSL     bool              `mapstructure:"validateSSL"`
	Proxy           string            `mapstructure:"proxy" validate:"omitempty,url"`
	Headers         map[string]string `mapstructure:"headers"`
	RateLimit       float64           `mapstructure:"rateLimit" validate:"gte=0"`
	Parallel        bool              `mapstructure:"parallel"`
	Concurrency     int               `mapstructure:"concurrency" validate:"min=1"`
	Bail            bool              `mapstructure:"bail"`
	Filter          string            `mapstructure:"filter"`
	Output          string            `mapstructure:"output" validate:"oneof=console json junit tap"`
	OutputFile      string            `mapstructure:"outputFile"`
	Verbose         bool              `mapstructure:"verbose"`
	NoColor         bool              `mapstructure:"noColor"`
	LogLevel        string            `mapstructure:"logLevel" validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat       string            `mapstructure:"logFormat" validate:"oneof=text json"`
	MetricsFile     string            `mapstructure:"metricsFile"`
	SlackWebhook    string            `mapstructure:"slackWebhook" validate:"omitempty,url"`
	NotifyOn        string            `mapstructure:"notifyOn" validate:"oneof=always failure success recovery"`
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".timecheck.json",
	"timecheck.json",
	".timecheck.yaml",
	"timecheck.yaml",
}

// Keys lists every configuration key, in declaration order.
func Keys() []string {
	t := reflect.TypeOf(Config{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		keys = append(keys, t.Field(i).Tag.Get("mapstructure"))
	}
	return keys
}

// flagAliases names the repeatable flags whose name is singular.
var flagAliases = map[string]string{
	"headers":   "header",
	"variables": "var",
}

// FlagName is the command-line flag bound to a key: latencyCeiling becomes
// latency-ceiling.
func FlagName(key string) string {
	if alias, ok := flagAliases[key]; ok {
		return alias
	}
	return strings.ToLower(splitWords(key, '-'))
}

// EnvName is the environment variable bound to a key: latencyCeiling
// becomes TIMECHECK_LATENCY_CEILING.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(splitWords(key, '_'))
}

// splitWords inserts sep at camelCase boundaries, keeping acronyms such as
// URL or SSL together.
func splitWords(key string, sep rune) string {
	runes := []rune(key)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
				b.WriteRune(sep)
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	// File is an explicit config file. When empty, Dir is searched for
	// ConfigFilenames.
	File string
	Dir  string
	// Flags are bound by FlagName; only flags that were set override.
	Flags *pflag.FlagSet
}

// Load merges defaults, config file, environment and flags, then validates.
// It also returns the config file used, if any.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	dv := reflect.ValueOf(defaults).Elem()
	for i, key := range Keys() {
		v.SetDefault(key, dv.Field(i).Interface())
		if err := v.BindEnv(key, EnvName(key)); err != nil {
			return nil, "", errors.Wrapf(err, "binding %s", EnvName(key))
		}
		if opts.Flags != nil {
			if f := opts.Flags.Lookup(FlagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, "", errors.Wrapf(err, "binding --%s", f.Name)
				}
			}
		}
	}

	file := opts.File
	if file == "" {
		file = findConfigFile(opts.Dir)
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, file, errors.Wrapf(err, "reading config file %s", file)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, file, errors.Wrap(err, "decoding configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, file, err
	}
	return cfg, file, nil
}

func findConfigFile(dir string) string {
	if dir == "" {
		dir = "."
	}
	for _, filename := range ConfigFilenames {
		path := filepath.Join(dir, filename)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})
	return v
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(err, "validating configuration")
	}

	var result *multierror.Error
	for _, fe := range fieldErrs {
		result = multierror.Append(result, errors.Errorf("invalid %s (%v): %s", fe.Field(), fe.Value(), describeTag(fe)))
	}
	return result.ErrorOrNil()
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value is required"
	case "url":
		return "must be an absolute URL"
	case "dir":
		return "must be an existing directory"
	case "file":
		return "must be an existing file"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt", "gte", "min":
		return "must be " + map[string]string{"gt": "greater than", "gte": "at least", "min": "at least"}[fe.Tag()] + " " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}
