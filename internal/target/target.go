package target

import (
	"fmt"
	"strconv"
	"strings"
)

// Target is a named remote endpoint plus the credentials and protocol
// properties an action uses to reach it. Properties are opaque here; only
// the consuming action interprets them.
type Target struct {
	Name         string            `json:"name" yaml:"name"`
	Host         string            `json:"host" yaml:"host"`
	Port         int               `json:"port" yaml:"port"`
	User         string            `json:"user,omitempty" yaml:"user,omitempty"`
	UserPassword string            `json:"user_password,omitempty" yaml:"user_password,omitempty"`
	Properties   map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Property returns the raw value stored under key. Blank values count as absent.
func (t Target) Property(key string) (string, bool) {
	v, ok := t.Properties[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// NumericProperty returns the integer stored under key. A present value that
// is not an integer is an error, never a silent fallback. The error names
// the value only; callers add the key.
func (t Target) NumericProperty(key string) (int, bool, error) {
	v, ok := t.Property(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false, fmt.Errorf("%q is not an integer", v)
	}
	return n, true, nil
}

// BooleanProperty returns the boolean stored under key.
func (t Target) BooleanProperty(key string) (bool, bool, error) {
	v, ok := t.Property(key)
	if !ok {
		return false, false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, false, fmt.Errorf("%q is not a boolean", v)
	}
	return b, true, nil
}

// Clone returns a deep copy so callers can hand out targets without sharing
// the properties map.
func (t Target) Clone() Target {
	out := t
	if t.Properties != nil {
		out.Properties = make(map[string]string, len(t.Properties))
		for k, v := range t.Properties {
			out.Properties[k] = v
		}
	}
	return out
}
