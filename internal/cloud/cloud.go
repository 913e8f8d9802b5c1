// FilePath: internal/cloud/cloud.go
package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gardenhub/server/hub/internal/config"
	"github.com/gardenhub/server/hub/internal/models"
	"github.com/go-resty/resty/v2"
	nuts "github.com/vaudience/go-nuts"
)

const (
	readPath  = "/external/api/get"
	writePath = "/external/api/update"

	// checkPin is written during connectivity checks; no device listens on it.
	checkPin = "V0"

	redacted = "REDACTED"
)

// Snapshot fields in the order they are requested.
var snapshotFields = []string{"soil", "temperature", "humidity", "light", "pressure"}

// ErrCloudReported is returned when the cloud answers with an error object
// instead of readings.
var ErrCloudReported = errors.New("sensor cloud reported an error")

// ErrNoReadings is returned when the cloud answers without any of the
// configured pins.
var ErrNoReadings = errors.New("sensor cloud response has no readings")

// Client talks to the sensor cloud's read and write channels.
type Client struct {
	http  *resty.Client
	token string
	pins  map[string]string
}

type cloudError struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// New creates a client for cfg. The token never leaves this package.
func New(cfg config.CloudConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{token: cfg.Token}

	c.http = resty.New().
		SetLogger(restyLogger{redact: c.redact}).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(1).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json")

	c.pins = make(map[string]string, len(snapshotFields))
	for _, field := range snapshotFields {
		if pin, ok := cfg.Pins[field]; ok && pin != "" {
			c.pins[field] = pin
		}
	}
	return c
}

// FetchSnapshot reads the configured pins. The returned snapshot carries no
// timestamp; the caller stamps it.
func (c *Client) FetchSnapshot(ctx context.Context) (*models.SensorSnapshot, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(c.readURL())
	if err != nil {
		return nil, fmt.Errorf("failed to call sensor cloud: %w", c.scrub(err))
	}

	var reported cloudError
	if json.Unmarshal(resp.Body(), &reported) == nil && reported.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrCloudReported, c.redact(reported.Error.Message))
	}
	if resp.IsError() {
		return nil, fmt.Errorf("sensor cloud returned status %d", resp.StatusCode())
	}

	var values map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body(), &values); err != nil {
		return nil, fmt.Errorf("failed to decode sensor cloud response: %w", err)
	}

	snapshot := &models.SensorSnapshot{}
	targets := map[string]**float64{
		"soil":        &snapshot.SoilMoisture,
		"temperature": &snapshot.Temperature,
		"humidity":    &snapshot.Humidity,
		"light":       &snapshot.Light,
		"pressure":    &snapshot.Pressure,
	}
	found := 0
	for field, pin := range c.pins {
		raw, ok := values[pin]
		if !ok {
			continue
		}
		v, err := parseValue(raw)
		if err != nil {
			nuts.L.Warnf("[Cloud] Ignoring %s (%s): %v", field, pin, err)
			continue
		}
		*targets[field] = &v
		found++
	}
	if found == 0 {
		return nil, ErrNoReadings
	}
	return snapshot, nil
}

// UpdatePin writes value to pin through the write channel.
func (c *Client) UpdatePin(ctx context.Context, pin string, value float64) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"token": c.token,
			pin:     FormatValue(value),
		}).
		Get(writePath)
	if err != nil {
		return fmt.Errorf("failed to update pin %s: %w", pin, c.scrub(err))
	}
	if resp.IsError() {
		return fmt.Errorf("sensor cloud rejected %s=%s: status %d: %s",
			pin, FormatValue(value), resp.StatusCode(), c.redact(strings.TrimSpace(resp.String())))
	}
	return nil
}

// ConnectionReport reports the reachability of both channels.
type ConnectionReport struct {
	ReadStatus  int    `json:"read_status"`
	ReadOK      bool   `json:"read_ok"`
	ReadError   string `json:"read_error,omitempty"`
	WriteStatus int    `json:"write_status"`
	WriteOK     bool   `json:"write_ok"`
	WriteError  string `json:"write_error,omitempty"`
}

// OK reports whether both channels answered successfully.
func (p ConnectionReport) OK() bool {
	return p.ReadOK && p.WriteOK
}

// CheckConnection calls the read channel and writes a neutral value to an unused pin.
func (c *Client) CheckConnection(ctx context.Context) ConnectionReport {
	var result ConnectionReport

	resp, err := c.http.R().SetContext(ctx).Get(c.readURL())
	if err != nil {
		result.ReadError = c.scrub(err).Error()
	} else {
		result.ReadStatus = resp.StatusCode()
		result.ReadOK = resp.IsSuccess()
		if !result.ReadOK {
			result.ReadError = c.redact(strings.TrimSpace(resp.String()))
		}
	}

	resp, err = c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"token": c.token, checkPin: "0"}).
		Get(writePath)
	if err != nil {
		result.WriteError = c.scrub(err).Error()
	} else {
		result.WriteStatus = resp.StatusCode()
		result.WriteOK = resp.IsSuccess()
		if !result.WriteOK {
			result.WriteError = c.redact(strings.TrimSpace(resp.String()))
		}
	}

	return result
}

// readURL lists the pins as bare keys, which is how the cloud expects them.
func (c *Client) readURL() string {
	var sb strings.Builder
	sb.WriteString(readPath)
	sb.WriteString("?token=")
	sb.WriteString(url.QueryEscape(c.token))
	for _, field := range snapshotFields {
		if pin, ok := c.pins[field]; ok {
			sb.WriteString("&")
			sb.WriteString(url.QueryEscape(pin))
		}
	}
	return sb.String()
}

// redactedError carries a message with the token removed. Transport errors
// from net/http embed the full request URL, query string included.
type redactedError struct {
	msg   string
	cause error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.cause }

// scrub strips the token from err. A *url.Error is unwrapped so the cause
// chain no longer holds the URL.
func (c *Client) scrub(err error) error {
	if err == nil {
		return nil
	}
	cause := err
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		cause = urlErr.Err
	}
	return &redactedError{msg: c.redact(err.Error()), cause: cause}
}

func (c *Client) redact(s string) string {
	if c.token == "" {
		return s
	}
	s = strings.ReplaceAll(s, c.token, redacted)
	return strings.ReplaceAll(s, url.QueryEscape(c.token), redacted)
}

// restyLogger sends resty's own warnings through nuts.L with the token removed.
type restyLogger struct {
	redact func(string) string
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	nuts.L.Errorf("[Cloud] %s", l.redact(fmt.Sprintf(format, v...)))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	nuts.L.Warnf("[Cloud] %s", l.redact(fmt.Sprintf(format, v...)))
}

// Debugf drops resty's request dumps; debug mode is never enabled.
func (l restyLogger) Debugf(string, ...interface{}) {}

func parseValue(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("unsupported value %s", string(raw))
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// FormatValue renders v in its shortest decimal form, so 1 becomes "1".
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
