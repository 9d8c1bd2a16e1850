package http

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrEmptyBody is returned by BodyJSON when the response has no body.
var ErrEmptyBody = errors.New("response body is empty")

type Response struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration
}

// Code returns the numeric status code.
func (r *Response) Code() int {
	return r.StatusCode
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// BodyJSON decodes the body as JSON. Objects decode to map[string]any,
// arrays to []any and numbers to float64.
func (r *Response) BodyJSON() (any, error) {
	if len(strings.TrimSpace(string(r.Body))) == 0 {
		return nil, ErrEmptyBody
	}
	if !gjson.ValidBytes(r.Body) {
		return nil, fmt.Errorf("response body is not valid JSON: %s", truncate(r.BodyString(), 120))
	}
	return gjson.ParseBytes(r.Body).Value(), nil
}

func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	ct := r.ContentType()
	return strings.Contains(ct, "application/json")
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
