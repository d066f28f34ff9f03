package couch

import (
	"net/url"
	"sync"
	"time"

	"github.com/morebase/couch-client/pkg/version"
)

// ToNativeFunc converts a wire (JSON-decoded) value into its native form.
// Converters that cannot interpret the value return it unchanged.
type ToNativeFunc func(c *Couch, v any) any

// ToWireFunc converts a native value into its wire (JSON-encodable) form.
type ToWireFunc func(c *Couch, v any) any

// conversions holds the two directional converter tables, keyed by tag.
// The mutex covers both tables: converters may be registered while calls
// are in flight and Values() converters read the tables concurrently.
type conversions struct {
	mu       sync.Mutex
	toNative map[string]ToNativeFunc
	toWire   map[string]ToWireFunc
}

// newConversions seeds the built-in converters and merges the user-supplied
// overrides on top, so user entries for the same tag win.
func newConversions(toNative map[string]ToNativeFunc, toWire map[string]ToWireFunc) *conversions {
	cv := &conversions{
		toNative: map[string]ToNativeFunc{
			"abs_uri":  convertAbsURI,
			"epoch":    convertEpoch,
			"isotime":  convertISOTime,
			"mailtime": convertMailTime,
			"version":  convertVersion,
			"node":     convertNodeName,
		},
		toWire: map[string]ToWireFunc{
			"bool": convertBool,
			"uri":  convertURI,
			"node": convertNode,
		},
	}
	for tag, fn := range toNative {
		cv.toNative[tag] = fn
	}
	for tag, fn := range toWire {
		cv.toWire[tag] = fn
	}
	return cv
}

// RegisterToNative installs or overrides a wire→native converter.
func (c *Couch) RegisterToNative(tag string, fn ToNativeFunc) {
	c.conv.mu.Lock()
	defer c.conv.mu.Unlock()
	c.conv.toNative[tag] = fn
}

// RegisterToWire installs or overrides a native→wire converter.
func (c *Couch) RegisterToWire(tag string, fn ToWireFunc) {
	c.conv.mu.Lock()
	defer c.conv.mu.Unlock()
	c.conv.toWire[tag] = fn
}

// ToNative converts the named fields of payload in place through the tag's
// wire→native converter. Fields absent from the payload are skipped; an
// unregistered tag is a no-op. Returns the payload for chaining.
func (c *Couch) ToNative(payload map[string]any, tag string, fields ...string) map[string]any {
	c.conv.mu.Lock()
	fn, ok := c.conv.toNative[tag]
	c.conv.mu.Unlock()
	if !ok || payload == nil {
		return payload
	}
	for _, field := range fields {
		if v, present := payload[field]; present {
			payload[field] = fn(c, v)
		}
	}
	return payload
}

// ToWire converts the named fields of payload in place through the tag's
// native→wire converter. Symmetric to ToNative; the "bool" tag coerces any
// present value to a wire boolean.
func (c *Couch) ToWire(payload map[string]any, tag string, fields ...string) map[string]any {
	c.conv.mu.Lock()
	fn, ok := c.conv.toWire[tag]
	c.conv.mu.Unlock()
	if !ok || payload == nil {
		return payload
	}
	for _, field := range fields {
		if v, present := payload[field]; present {
			payload[field] = fn(c, v)
		}
	}
	return payload
}

// --- built-in converters ---

func convertAbsURI(_ *Couch, v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	u, err := url.Parse(s)
	if err != nil {
		return v
	}
	return u
}

func convertEpoch(_ *Couch, v any) any {
	switch n := v.(type) {
	case float64:
		return time.Unix(int64(n), 0).UTC()
	case int64:
		return time.Unix(n, 0).UTC()
	case int:
		return time.Unix(int64(n), 0).UTC()
	}
	return v
}

func convertISOTime(_ *Couch, v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return v
}

func convertMailTime(_ *Couch, v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return v
}

func convertVersion(_ *Couch, v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	parsed, err := version.Parse(s)
	if err != nil {
		return v
	}
	return parsed
}

func convertNodeName(c *Couch, v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return c.Node(s)
}

func convertBool(_ *Couch, v any) any {
	return isTruthy(v)
}

func convertURI(_ *Couch, v any) any {
	switch u := v.(type) {
	case *url.URL:
		return u.String()
	case url.URL:
		return u.String()
	}
	return v
}

func convertNode(_ *Couch, v any) any {
	if n, ok := v.(*Node); ok {
		return n.Name()
	}
	return v
}

// isTruthy follows the loose truthiness the wire "bool" coercion expects:
// nil, false, numeric zero, "" and "0" are false, everything else true.
func isTruthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != "" && x != "0"
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	}
	return true
}
