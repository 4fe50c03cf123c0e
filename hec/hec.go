// Package hec decodes HTTP Event Collector envelopes out of split bodies.
package hec

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/siegeai/logharness/splunkparse"
	"github.com/valyala/fastjson"
)

var (
	ErrNotObject    = errors.New("segment is not an object")
	ErrMissingField = errors.New("missing envelope field")
	ErrBadTime      = errors.New("invalid event time")
)

// Event is a collector envelope with Time in microseconds since the epoch.
type Event struct {
	Event string
	Time  int64
	Host  string
}

func (e Event) String() string {
	return fmt.Sprintf("EVENT %s %d %s", e.Host, e.Time, e.Event)
}

// Decode reads the event, time and host fields of v. Drivers send time as a
// string of fractional seconds, but plain numbers are accepted too.
func Decode(v *fastjson.Value) (Event, error) {
	if v == nil || v.Type() != fastjson.TypeObject {
		return Event{}, ErrNotObject
	}

	event, err := stringField(v, "event")
	if err != nil {
		return Event{}, err
	}
	host, err := stringField(v, "host")
	if err != nil {
		return Event{}, err
	}

	tv := v.Get("time")
	if tv == nil {
		return Event{}, fmt.Errorf("%w: time", ErrMissingField)
	}

	var seconds float64
	switch tv.Type() {
	case fastjson.TypeString:
		seconds, err = strconv.ParseFloat(string(tv.GetStringBytes()), 64)
		if err != nil {
			return Event{}, fmt.Errorf("%w: %v", ErrBadTime, err)
		}
	case fastjson.TypeNumber:
		seconds, err = tv.Float64()
		if err != nil {
			return Event{}, fmt.Errorf("%w: %v", ErrBadTime, err)
		}
	default:
		return Event{}, fmt.Errorf("%w: unexpected %s", ErrBadTime, tv.Type())
	}
	micros := seconds * 1e6
	if math.IsNaN(micros) || micros >= math.MaxInt64 || micros < math.MinInt64 {
		return Event{}, fmt.Errorf("%w: %v out of range", ErrBadTime, seconds)
	}

	return Event{
		Event: event,
		Time:  int64(micros),
		Host:  host,
	}, nil
}

func stringField(v *fastjson.Value, key string) (string, error) {
	f := v.Get(key)
	if f == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingField, key)
	}
	bs, err := f.StringBytes()
	if err != nil {
		return "", fmt.Errorf("%w: %s is %s", ErrMissingField, key, f.Type())
	}
	return string(bs), nil
}

// DecodeAll decodes every parsed segment that carries an envelope. Segments
// that are raw fallbacks or lack envelope fields are counted as skipped.
func DecodeAll(segments []splunkparse.Segment) ([]Event, int) {
	events := make([]Event, 0, len(segments))
	skipped := 0
	for _, s := range segments {
		if !s.Parsed() {
			skipped++
			continue
		}
		e, err := Decode(s.Value)
		if err != nil {
			skipped++
			continue
		}
		events = append(events, e)
	}
	return events, skipped
}
