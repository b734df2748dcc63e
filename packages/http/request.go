package http

import (
	"encoding/json"
	neturl "net/url"
	"sort"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/pkg/errors"
)

// Request describes one call against the service. Building it has no side
// effects; nothing is sent until Client.Do.
type Request struct {
	Method      string
	Path        string
	Headers     map[string]string
	QueryParams map[string]string
	Body        *Body
}

func NewRequest(method, path string) *Request {
	return &Request{
		Method:      strings.ToUpper(method),
		Path:        path,
		Headers:     make(map[string]string),
		QueryParams: make(map[string]string),
	}
}

func (r *Request) Accept(mediaType string) *Request {
	return r.SetHeader("Accept", mediaType)
}

func (r *Request) ContentType(mediaType string) *Request {
	return r.SetHeader("Content-Type", mediaType)
}

func (r *Request) SetHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

func (r *Request) SetQueryParam(key, value string) *Request {
	r.QueryParams[key] = value
	return r
}

// SetJSONBody attaches a JSON body, defaulting Content-Type to
// application/json when none was set.
func (r *Request) SetJSONBody(body *Body) *Request {
	r.Body = body
	if _, ok := r.header("Content-Type"); !ok {
		r.ContentType("application/json")
	}
	return r
}

func (r *Request) header(key string) (string, bool) {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// URL resolves the request path against baseURL. Absolute http(s) paths are
// used as they are. Query parameters are merged into any query string the
// path already carries.
func (r *Request) URL(baseURL string) (string, error) {
	raw := r.Path
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		if err := ValidateURL(baseURL); err != nil {
			return "", errors.Wrap(err, "base URL")
		}
		raw = strings.TrimRight(baseURL, "/")
		if path := strings.TrimLeft(r.Path, "/"); path != "" {
			raw += "/" + path
		}
	}

	u, err := neturl.Parse(raw)
	if err != nil {
		return "", errors.Wrapf(err, "invalid request URL %q", raw)
	}
	if err := ValidateURL(u.String()); err != nil {
		return "", err
	}

	if len(r.QueryParams) > 0 {
		q := u.Query()
		for k, v := range r.QueryParams {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

func (r *Request) encodeBody() ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := json.Marshal(r.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %s %s body", r.Method, r.Path)
	}
	return data, nil
}

// Curl renders the request as a shell-safe curl command line.
func (r *Request) Curl(baseURL string) string {
	target, err := r.URL(baseURL)
	if err != nil {
		target = strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(r.Path, "/")
	}

	args := []string{"curl", "-sS", "-X", r.Method}

	keys := make([]string, 0, len(r.Headers))
	for k := range r.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-H", k+": "+r.Headers[k])
	}

	if data, err := r.encodeBody(); err == nil && data != nil {
		args = append(args, "--data", string(data))
	}

	args = append(args, target)

	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellescape.Quote(a)
	}
	return strings.Join(quoted, " ")
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return errors.Wrap(err, "invalid URL")
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("unsupported URL scheme: %q (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("URL must have a host")
	}

	return nil
}
