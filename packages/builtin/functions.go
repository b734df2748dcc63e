package builtin

import (
	"encoding/base64"
	"math/rand"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrUnknownFunction is returned when a call names no registered function.
var ErrUnknownFunction = errors.New("unknown function")

type Func func(args []string) (any, error)

type Registry struct {
	clock Clock
	funcs map[string]Func
}

func NewRegistry(clock Clock) *Registry {
	if clock == nil {
		clock = SystemClock
	}
	r := &Registry{
		clock: clock,
		funcs: make(map[string]Func),
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["currentYear"] = r.funcCurrentYear
	r.funcs["now"] = r.funcNow
	r.funcs["date"] = r.funcDate
	r.funcs["timestamp"] = r.funcTimestamp
	r.funcs["timestampMs"] = r.funcTimestampMs
	r.funcs["uuid"] = funcUUID
	r.funcs["randomString"] = funcRandomString
	r.funcs["base64"] = funcBase64
	r.funcs["urlEncode"] = funcURLEncode
}

func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

// Names lists the registered functions, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var funcCallPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// IsCall reports whether expr has the shape of a function call.
func IsCall(expr string) bool {
	return funcCallPattern.MatchString(strings.TrimSpace(expr))
}

// Call evaluates an expression such as `date("2006")`.
func (r *Registry) Call(expr string) (any, error) {
	matches := funcCallPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if matches == nil {
		return nil, errors.Errorf("%q is not a function call", expr)
	}

	name := matches[1]
	fn, ok := r.funcs[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownFunction, name)
	}

	var args []string
	if argsStr := strings.TrimSpace(matches[2]); argsStr != "" {
		args = parseArgs(argsStr)
	}

	v, err := fn(args)
	if err != nil {
		return nil, errors.Wrapf(err, "%s()", name)
	}
	return v, nil
}

func parseArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !inQuote && (ch == '"' || ch == '\'') {
			inQuote = true
			quoteChar = ch
		} else if inQuote && ch == quoteChar {
			inQuote = false
			quoteChar = 0
		} else if !inQuote && ch == ',' {
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		} else {
			current.WriteByte(ch)
		}
	}

	if current.Len() > 0 {
		args = append(args, strings.TrimSpace(current.String()))
	}

	return args
}

func (r *Registry) now(args []string) (time.Time, error) {
	t := r.clock.Now()
	if len(args) == 0 || args[0] == "" {
		return t.UTC(), nil
	}
	loc, err := time.LoadLocation(args[0])
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "unknown time zone %q", args[0])
	}
	return t.In(loc), nil
}

func (r *Registry) funcCurrentYear(args []string) (any, error) {
	t, err := r.now(args)
	if err != nil {
		return nil, err
	}
	return t.Year(), nil
}

func (r *Registry) funcNow(args []string) (any, error) {
	layout := time.RFC3339
	if len(args) >= 1 {
		layout = args[0]
	}
	return r.clock.Now().UTC().Format(layout), nil
}

func (r *Registry) funcDate(args []string) (any, error) {
	layout := "2006-01-02"
	if len(args) >= 1 {
		layout = args[0]
	}
	return r.clock.Now().UTC().Format(layout), nil
}

func (r *Registry) funcTimestamp(_ []string) (any, error) {
	return r.clock.Now().Unix(), nil
}

func (r *Registry) funcTimestampMs(_ []string) (any, error) {
	return r.clock.Now().UnixMilli(), nil
}

func funcUUID(_ []string) (any, error) {
	return uuid.New().String(), nil
}

func funcRandomString(args []string) (any, error) {
	length := 16
	if len(args) >= 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			return nil, errors.Errorf("length argument %q is not a valid integer", args[0])
		}
		length = v
	}
	return randomString(length, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"), nil
}

func funcBase64(args []string) (any, error) {
	if len(args) < 1 {
		return nil, errors.New("missing value argument")
	}
	return base64.StdEncoding.EncodeToString([]byte(args[0])), nil
}

func funcURLEncode(args []string) (any, error) {
	if len(args) < 1 {
		return nil, errors.New("missing value argument")
	}
	return url.QueryEscape(args[0]), nil
}

func randomString(length int, charset string) string {
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
