package mock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/pkg/errors"
)

// CurrentTime is the body of the current time endpoint.
type CurrentTime struct {
	Year         int    `json:"year"`
	Month        int    `json:"month"`
	Day          int    `json:"day"`
	Hour         int    `json:"hour"`
	Minute       int    `json:"minute"`
	Seconds      int    `json:"seconds"`
	MilliSeconds int    `json:"milliSeconds"`
	DateTime     string `json:"dateTime"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	TimeZone     string `json:"timeZone"`
	DayOfWeek    string `json:"dayOfWeek"`
	DSTActive    bool   `json:"dstActive"`
}

// IncrementRequest is the body accepted by the increment endpoint.
type IncrementRequest struct {
	TimeZone string `json:"timeZone"`
	TimeSpan string `json:"timeSpan"`
}

// CalculationResult is a point in time without zone name.
type CalculationResult struct {
	Year         int    `json:"year"`
	Month        int    `json:"month"`
	Day          int    `json:"day"`
	Hour         int    `json:"hour"`
	Minute       int    `json:"minute"`
	Seconds      int    `json:"seconds"`
	MilliSeconds int    `json:"milliSeconds"`
	DateTime     string `json:"dateTime"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	DSTActive    bool   `json:"dstActive"`
	DayOfWeek    string `json:"dayOfWeek"`
}

type IncrementResponse struct {
	TimeZone          string            `json:"timeZone"`
	OriginalDateTime  string            `json:"originalDateTime"`
	UsedTimeSpan      string            `json:"usedTimeSpan"`
	CalculationResult CalculationResult `json:"calculationResult"`
}

const (
	dateTimeLayout = "2006-01-02T15:04:05.0000000"
	dateLayout     = "01/02/2006"
	timeLayout     = "15:04"
)

func (s *Server) availableTimeZones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.zones)
}

func (s *Server) currentTime(w http.ResponseWriter, r *http.Request) {
	zone := r.URL.Query().Get("timeZone")
	loc, err := loadZone(zone)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, currentTimeIn(s.clock.Now().In(loc), zone))
}

func (s *Server) increment(w http.ResponseWriter, r *http.Request) {
	var req IncrementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	loc, err := loadZone(req.TimeZone)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	span, err := ParseTimeSpan(req.TimeSpan)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := s.clock.Now().In(loc)
	writeJSON(w, http.StatusOK, IncrementResponse{
		TimeZone:          req.TimeZone,
		OriginalDateTime:  now.Format(dateTimeLayout),
		UsedTimeSpan:      FormatTimeSpan(span),
		CalculationResult: calculationResult(now.Add(span)),
	})
}

func loadZone(name string) (*time.Location, error) {
	if name == "" {
		return nil, errors.New("timeZone is required")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, errors.Errorf("invalid timeZone: %s", name)
	}
	return loc, nil
}

func currentTimeIn(t time.Time, zone string) CurrentTime {
	return CurrentTime{
		Year:         t.Year(),
		Month:        int(t.Month()),
		Day:          t.Day(),
		Hour:         t.Hour(),
		Minute:       t.Minute(),
		Seconds:      t.Second(),
		MilliSeconds: t.Nanosecond() / int(time.Millisecond),
		DateTime:     t.Format(dateTimeLayout),
		Date:         t.Format(dateLayout),
		Time:         t.Format(timeLayout),
		TimeZone:     zone,
		DayOfWeek:    t.Weekday().String(),
		DSTActive:    t.IsDST(),
	}
}

func calculationResult(t time.Time) CalculationResult {
	ct := currentTimeIn(t, "")
	return CalculationResult{
		Year:         ct.Year,
		Month:        ct.Month,
		Day:          ct.Day,
		Hour:         ct.Hour,
		Minute:       ct.Minute,
		Seconds:      ct.Seconds,
		MilliSeconds: ct.MilliSeconds,
		DateTime:     ct.DateTime,
		Date:         ct.Date,
		Time:         ct.Time,
		DSTActive:    ct.DSTActive,
		DayOfWeek:    ct.DayOfWeek,
	}
}

// ParseTimeSpan reads "dd:hh:mm:ss" or "hh:mm:ss". Days are unbounded, the
// other parts must be in their clock range.
func ParseTimeSpan(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) == 3 {
		parts = append([]string{"0"}, parts...)
	}
	if len(parts) != 4 {
		return 0, errors.Errorf("invalid timeSpan %q: want dd:hh:mm:ss", s)
	}

	limits := []int{-1, 23, 59, 59}
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}

	var total time.Duration
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || (limits[i] >= 0 && n > limits[i]) {
			return 0, errors.Errorf("invalid timeSpan %q: bad component %q", s, part)
		}
		total += time.Duration(n) * units[i]
	}
	return total, nil
}

// FormatTimeSpan renders d as "d.hh:mm:ss", dropping the day part when it is
// zero.
func FormatTimeSpan(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	sec := int(d / time.Second)

	if days > 0 {
		return fmt.Sprintf("%d.%02d:%02d:%02d", days, h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}
