package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Response is a captured HTTP response. It is never modified after capture
// and is safe to share between goroutines.
type Response struct {
	statusCode int
	status     string
	header     http.Header
	body       []byte
	duration   time.Duration
}

// NewResponse builds a captured response, mainly for tests. The body is
// copied.
func NewResponse(statusCode int, header http.Header, body []byte, duration time.Duration) *Response {
	if header == nil {
		header = http.Header{}
	}
	return &Response{
		statusCode: statusCode,
		status:     fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
		header:     header.Clone(),
		body:       bytes.Clone(body),
		duration:   duration,
	}
}

func (r *Response) StatusCode() int {
	return r.statusCode
}

func (r *Response) Status() string {
	return r.status
}

func (r *Response) Header(key string) string {
	return r.header.Get(key)
}

func (r *Response) Headers() http.Header {
	return r.header.Clone()
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

// IsJSON reports whether the Content-Type is application/json or a +json
// media type.
func (r *Response) IsJSON() bool {
	return strings.Contains(strings.ToLower(r.ContentType()), "json")
}

func (r *Response) IsSuccess() bool {
	return r.statusCode >= 200 && r.statusCode < 300
}

// Duration is the time from dispatch until the full body was read.
func (r *Response) Duration() time.Duration {
	return r.duration
}

func (r *Response) DurationMs() int64 {
	return r.duration.Milliseconds()
}

func (r *Response) Text() string {
	return string(r.body)
}

func (r *Response) Bytes() []byte {
	return bytes.Clone(r.body)
}

func (r *Response) Size() int {
	return len(r.body)
}

// Document decodes the whole body. Numbers are kept as json.Number.
func (r *Response) Document() (any, error) {
	return decode(r.body)
}

// Field looks up a value by gjson path (`timeZone`, `items.0.name`). A
// leading `$.` is accepted. Numbers are returned as json.Number, objects
// and arrays as decoded maps and slices.
func (r *Response) Field(path string) (any, bool) {
	result, ok := r.lookup(path)
	if !ok {
		return nil, false
	}

	switch result.Type {
	case gjson.Null:
		return nil, true
	case gjson.False, gjson.True:
		return result.Bool(), true
	case gjson.Number:
		if result.Raw == "" {
			return json.Number(strconv.FormatFloat(result.Num, 'f', -1, 64)), true
		}
		return json.Number(result.Raw), true
	case gjson.String:
		return result.Str, true
	default:
		v, err := decode([]byte(result.Raw))
		if err != nil {
			return nil, false
		}
		return v, true
	}
}

// Raw returns the JSON text of the value at path.
func (r *Response) Raw(path string) (string, bool) {
	result, ok := r.lookup(path)
	if !ok {
		return "", false
	}
	return result.Raw, true
}

func (r *Response) lookup(path string) (gjson.Result, bool) {
	if !gjson.ValidBytes(r.body) {
		return gjson.Result{}, false
	}

	path = strings.TrimPrefix(strings.TrimPrefix(path, "$"), ".")
	if path == "" {
		path = "@this"
	}

	result := gjson.GetBytes(r.body, path)
	return result, result.Exists()
}

func decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "decoding JSON body")
	}
	if dec.More() {
		return nil, errors.New("decoding JSON body: unexpected data after top-level value")
	}
	return v, nil
}
