// Package problem renders RFC 7807 Problem Details bodies.
package problem

import (
	"encoding/json"
	"net/http"
)

const ContentType = "application/problem+json"

const (
	TypeBadRequest          = "https://tools.ietf.org/html/rfc9110#section-15.5.1"
	TypeUnauthorized        = "https://tools.ietf.org/html/rfc9110#section-15.5.2"
	TypeNotFound            = "https://tools.ietf.org/html/rfc9110#section-15.5.5"
	TypeConflict            = "https://tools.ietf.org/html/rfc9110#section-15.5.10"
	TypeInternalServerError = "https://tools.ietf.org/html/rfc9110#section-15.6.1"
)

// Details is a Problem Details document. Extensions are written as top-level
// members next to the standard ones; a key that collides with a standard
// member is ignored.
type Details struct {
	Type       string
	Title      string
	Status     int
	Detail     string
	Instance   string
	TraceID    string
	Errors     map[string][]string
	Extensions map[string]any
}

// New fills type and title from the status code.
func New(status int, detail string) *Details {
	return &Details{
		Type:   TypeFor(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

// With sets an extension member and returns d.
func (d *Details) With(key string, value any) *Details {
	if d.Extensions == nil {
		d.Extensions = map[string]any{}
	}
	d.Extensions[key] = value
	return d
}

// AddError appends a message to the errors map under field.
func (d *Details) AddError(field, message string) *Details {
	if d.Errors == nil {
		d.Errors = map[string][]string{}
	}
	d.Errors[field] = append(d.Errors[field], message)
	return d
}

var reserved = map[string]struct{}{
	"type": {}, "title": {}, "status": {}, "detail": {}, "instance": {}, "traceId": {}, "errors": {},
}

func (d Details) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 7+len(d.Extensions))
	for k, v := range d.Extensions {
		if _, skip := reserved[k]; skip {
			continue
		}
		out[k] = v
	}
	out["type"] = d.Type
	out["title"] = d.Title
	out["status"] = d.Status
	if d.Detail != "" {
		out["detail"] = d.Detail
	}
	if d.Instance != "" {
		out["instance"] = d.Instance
	}
	if d.TraceID != "" {
		out["traceId"] = d.TraceID
	}
	if len(d.Errors) > 0 {
		out["errors"] = d.Errors
	}
	return json.Marshal(out)
}

func (d *Details) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = Details{}
	fields := map[string]any{
		"type":     &d.Type,
		"title":    &d.Title,
		"status":   &d.Status,
		"detail":   &d.Detail,
		"instance": &d.Instance,
		"traceId":  &d.TraceID,
		"errors":   &d.Errors,
	}
	for key, value := range raw {
		if target, ok := fields[key]; ok {
			if err := json.Unmarshal(value, target); err != nil {
				return err
			}
			continue
		}
		var ext any
		if err := json.Unmarshal(value, &ext); err != nil {
			return err
		}
		if d.Extensions == nil {
			d.Extensions = map[string]any{}
		}
		d.Extensions[key] = ext
	}
	return nil
}

func (d *Details) Error() string {
	if d.Detail != "" {
		return d.Title + ": " + d.Detail
	}
	return d.Title
}

// TypeFor maps a status code to its RFC 9110 section.
func TypeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return TypeBadRequest
	case http.StatusUnauthorized:
		return TypeUnauthorized
	case http.StatusNotFound:
		return TypeNotFound
	case http.StatusConflict:
		return TypeConflict
	default:
		return TypeInternalServerError
	}
}
