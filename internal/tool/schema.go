package tool

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// argSchema is the advertised JSON Schema of an argument type together with the
// validator compiled from that same document.
type argSchema struct {
	doc      map[string]any
	resolved *jsonschema.Resolved
}

// reflectSchema builds the schema of T once, at tool construction. In strict mode every
// object is closed and all of its properties become required.
func reflectSchema[T any](strict bool) (*argSchema, error) {
	s, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.New("schema reflection returned nil")
	}
	var doc map[string]any
	if err := convert(s, &doc); err != nil {
		return nil, err
	}
	if err := applyTags(doc, reflect.TypeFor[T]()); err != nil {
		return nil, err
	}
	if strict {
		closeObjects(doc)
	}
	dropIDs(doc)

	var compiled jsonschema.Schema
	if err := convert(doc, &compiled); err != nil {
		return nil, err
	}
	resolved, err := compiled.Resolve(nil)
	if err != nil {
		return nil, err
	}
	return &argSchema{doc: doc, resolved: resolved}, nil
}

// convert re-encodes src into dst through JSON.
func convert(src, dst any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// tagRules maps struct tags onto schema keywords of the matching property. minimum and
// default must hold JSON values.
var tagRules = []struct {
	tag   string
	apply func(prop map[string]any, value string) error
}{
	{"description", func(prop map[string]any, v string) error {
		prop["description"] = v
		return nil
	}},
	{"enum", func(prop map[string]any, v string) error {
		var values []any
		for item := range strings.SplitSeq(v, ",") {
			values = append(values, strings.TrimSpace(item))
		}
		prop["enum"] = values
		return nil
	}},
	{"minimum", func(prop map[string]any, v string) error {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		prop["minimum"] = n
		return nil
	}},
	{"default", func(prop map[string]any, v string) error {
		var def any
		if err := json.Unmarshal([]byte(v), &def); err != nil {
			return err
		}
		prop["default"] = def
		return nil
	}},
}

// applyTags decorates the root properties of doc from the struct tags of typ. Fields
// are matched by their json name.
func applyTags(doc map[string]any, typ reflect.Type) error {
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil
	}
	props, _ := doc["properties"].(map[string]any)
	if len(props) == 0 {
		return nil
	}
	for _, field := range reflect.VisibleFields(typ) {
		if field.Anonymous || !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		prop, ok := props[name].(map[string]any)
		if name == "" || name == "-" || !ok {
			continue
		}
		for _, rule := range tagRules {
			value := field.Tag.Get(rule.tag)
			if value == "" {
				continue
			}
			if err := rule.apply(prop, value); err != nil {
				return fmt.Errorf("field %s: invalid %s tag %q: %w", field.Name, rule.tag, value, err)
			}
		}
	}
	return nil
}

// eachNode calls visit on node and on every schema object nested below it, $defs included.
func eachNode(node map[string]any, visit func(map[string]any)) {
	if node == nil {
		return
	}
	visit(node)
	for _, child := range node {
		switch c := child.(type) {
		case map[string]any:
			eachNode(c, visit)
		case []any:
			for _, item := range c {
				if m, ok := item.(map[string]any); ok {
					eachNode(m, visit)
				}
			}
		}
	}
}

func closeObjects(doc map[string]any) {
	eachNode(doc, func(n map[string]any) {
		props, ok := n["properties"].(map[string]any)
		if !ok {
			return
		}
		n["additionalProperties"] = false
		if len(props) == 0 {
			return
		}
		names := slices.Sorted(maps.Keys(props))
		required := make([]any, len(names))
		for i, name := range names {
			required[i] = name
		}
		n["required"] = required
	})
}

// dropIDs removes id and $id so resolution never tries to fetch a remote document.
func dropIDs(doc map[string]any) {
	eachNode(doc, func(n map[string]any) {
		delete(n, "id")
		delete(n, "$id")
	})
}
