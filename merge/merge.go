// Package merge combines inferred schemas so that one schema describes every
// sample it was built from.
package merge

import (
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

func SchemaRef(a, b *openapi3.SchemaRef) *openapi3.SchemaRef {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	// inferred schemas are always inline, a ref on either side wins as-is
	if a.Ref != "" {
		return a
	}
	if b.Ref != "" {
		return b
	}
	s := Schema(a.Value, b.Value)
	if s == nil {
		return nil
	}
	return s.NewRef()
}

func Schema(a, b *openapi3.Schema) *openapi3.Schema {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	if isNull(a) {
		return nullable(b)
	}
	if isNull(b) {
		return nullable(a)
	}

	if a.Type == b.Type {
		return mergeSchemaSameType(a, b)
	}
	return mergeSchemaDifferentType(a, b)
}

func isNull(s *openapi3.Schema) bool {
	return s.Type == "" && s.Nullable && len(s.OneOf) == 0
}

func nullable(s *openapi3.Schema) *openapi3.Schema {
	c := *s
	c.Nullable = true
	return &c
}

func mergeSchemaSameType(a, b *openapi3.Schema) *openapi3.Schema {
	s := &openapi3.Schema{
		Type:       a.Type,
		Title:      mergeString(a.Title, b.Title),
		Format:     mergeFormat(a.Format, b.Format),
		Nullable:   a.Nullable || b.Nullable,
		Items:      SchemaRef(a.Items, b.Items),
		Required:   mergeRequired(a.Required, b.Required),
		Properties: Schemas(a.Properties, b.Properties),
	}
	if a.Type == "" {
		s.OneOf = mergeFlatParams(flattenTypes(a), flattenTypes(b))
	}
	return s
}

// mergeRequired keeps the keys that both sides require.
func mergeRequired(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	inB := make(map[string]struct{}, len(b))
	for _, r := range b {
		inB[r] = struct{}{}
	}
	res := make([]string, 0, len(a))
	for _, r := range a {
		if _, in := inB[r]; in {
			res = append(res, r)
		}
	}
	sort.Strings(res)
	return res
}

func Schemas(a, b openapi3.Schemas) openapi3.Schemas {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}

	rs := make(openapi3.Schemas, max(len(a), len(b)))
	for k, v := range a {
		if w, in := b[k]; in {
			rs[k] = SchemaRef(v, w)
		} else {
			rs[k] = v
		}
	}
	for k, v := range b {
		if _, in := rs[k]; !in {
			rs[k] = v
		}
	}
	return rs
}

// mergeSchemaDifferentType produces a oneOf holding one alternative per type.
func mergeSchemaDifferentType(a, b *openapi3.Schema) *openapi3.Schema {
	return &openapi3.Schema{
		OneOf:    mergeFlatParams(flattenTypes(a), flattenTypes(b)),
		Nullable: a.Nullable || b.Nullable,
	}
}

func mergeFlatParams(a, b map[string]*openapi3.SchemaRef) openapi3.SchemaRefs {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, in := a[k]; !in {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	res := make(openapi3.SchemaRefs, 0, len(keys))
	for _, k := range keys {
		res = append(res, SchemaRef(a[k], b[k]))
	}
	return res
}

func flattenTypes(s *openapi3.Schema) map[string]*openapi3.SchemaRef {
	if s.Type != "" {
		return map[string]*openapi3.SchemaRef{s.Type: s.NewRef()}
	}
	f := make(map[string]*openapi3.SchemaRef, len(s.OneOf))
	for _, v := range s.OneOf {
		if v == nil || v.Value == nil {
			continue
		}
		f[v.Value.Type] = v
	}
	return f
}

func mergeFormat(a, b string) string {
	if a == b {
		return a
	}
	// a string field that is sometimes a uuid and sometimes not has no format
	return ""
}

func mergeString(a, b string) string {
	if len(b) > len(a) {
		return b
	}
	return a
}
