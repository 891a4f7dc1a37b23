//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

// Package schema generates JSON schemas for Go types via reflection.
package schema

import (
	"reflect"
	"strings"

	"github.com/oracle/wayflow-sub000/tool"
)

// Generate returns the JSON schema describing t.
// Struct fields use their json tags for naming; unexported fields and fields
// tagged json:"-" are skipped. Non-pointer fields without omitempty are
// required.
func Generate(t reflect.Type) *tool.Schema {
	if t == nil {
		return &tool.Schema{Type: "object"}
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fieldSchema(t)
	}

	schema := &tool.Schema{
		Type:       "object",
		Properties: map[string]*tool.Schema{},
	}
	var required []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty := fieldName(field)
		if name == "" {
			continue
		}
		schema.Properties[name] = fieldSchema(field.Type)
		if field.Type.Kind() != reflect.Ptr && !omitEmpty {
			required = append(required, name)
		}
	}
	schema.Required = required
	return schema
}

func fieldName(field reflect.StructField) (name string, omitEmpty bool) {
	name = field.Name
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	if tag == "" {
		return name, false
	}
	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		name = parts[0]
	}
	for _, p := range parts[1:] {
		if p == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty
}

func fieldSchema(t reflect.Type) *tool.Schema {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return &tool.Schema{Type: "string"}
	case reflect.Bool:
		return &tool.Schema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &tool.Schema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &tool.Schema{Type: "number"}
	case reflect.Slice, reflect.Array:
		return &tool.Schema{Type: "array", Items: fieldSchema(t.Elem())}
	case reflect.Map:
		return &tool.Schema{Type: "object", AdditionalProperties: true}
	case reflect.Struct:
		return Generate(t)
	default:
		return &tool.Schema{Type: "object"}
	}
}
