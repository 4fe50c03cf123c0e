// Package infer derives OpenAPI schemas from the JSON events seen by the
// echo responder, so a pipeline run can be checked for the event shape it
// actually delivers.
package infer

import (
	"slices"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/uuid"
	"github.com/siegeai/logharness/merge"
	"github.com/siegeai/logharness/splunkparse"
	"github.com/valyala/fastjson"
)

// BatchSchema merges the schemas of every parsed segment. It returns nil when
// no segment parsed.
func BatchSchema(segments []splunkparse.Segment) *openapi3.Schema {
	var s *openapi3.Schema
	for _, seg := range segments {
		if !seg.Parsed() {
			continue
		}
		s = merge.Schema(s, SegmentSchema(seg.Value))
	}
	return s
}

func SegmentSchema(v *fastjson.Value) *openapi3.Schema {
	switch v.Type() {
	case fastjson.TypeObject:
		return newObjectSchema(v.GetObject())
	case fastjson.TypeArray:
		return newArraySchema(v.GetArray())
	case fastjson.TypeString:
		return newStringSchema(string(v.GetStringBytes()))
	case fastjson.TypeNumber:
		if _, err := v.Int64(); err == nil {
			return &openapi3.Schema{Type: openapi3.TypeInteger}
		}
		return &openapi3.Schema{Type: openapi3.TypeNumber}
	case fastjson.TypeTrue, fastjson.TypeFalse:
		return &openapi3.Schema{Type: openapi3.TypeBoolean}
	}
	return &openapi3.Schema{Nullable: true}
}

func newObjectSchema(o *fastjson.Object) *openapi3.Schema {
	ps := make(openapi3.Schemas, o.Len())
	rs := make([]string, 0, o.Len())
	o.Visit(func(key []byte, v *fastjson.Value) {
		k := string(key)
		ps[k] = SegmentSchema(v).NewRef()
		rs = append(rs, k)
	})
	// fastjson keeps repeated keys
	slices.Sort(rs)
	rs = slices.Compact(rs)

	return &openapi3.Schema{
		Type:       openapi3.TypeObject,
		Required:   rs,
		Properties: ps,
	}
}

func newArraySchema(vs []*fastjson.Value) *openapi3.Schema {
	var item *openapi3.Schema
	for _, v := range vs {
		item = merge.Schema(item, SegmentSchema(v))
	}

	s := &openapi3.Schema{Type: openapi3.TypeArray}
	if item != nil {
		s.Items = item.NewRef()
	}
	return s
}

func newStringSchema(s string) *openapi3.Schema {
	schema := &openapi3.Schema{Type: openapi3.TypeString}
	if _, err := uuid.Parse(s); err == nil && len(s) == 36 {
		schema.Format = "uuid"
	} else if _, err := time.Parse(time.RFC3339Nano, s); err == nil {
		schema.Format = "date-time"
	}
	return schema
}
