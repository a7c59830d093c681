// Package yamlmod exposes YAML parsing and serialization to templates as
// the yaml module.
//
// The module uses the soft-failure style: yaml.parse and yaml.stringify
// return null on bad input and record the failure, and yaml.error() returns
// and clears the last recorded message. A template can therefore branch on
// parse failures without aborting the render.
package yamlmod

import (
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"

	"github.com/aparcar/utpl/utpl"
)

type Module struct{}

func New() *Module { return &Module{} }

func (m *Module) ModuleName() string { return "yaml" }

func (m *Module) Values() map[string]utpl.NativeFunc {
	return utpl.WithLastError(map[string]utpl.NativeFunc{
		"parse":     parse,
		"stringify": stringify,
	})
}

// parse decodes from the document AST rather than through Unmarshal: scalar
// resolution needs the node style (plain yes is a boolean, quoted "yes" is a
// string), which the decoded Go values no longer carry.
func parse(call *utpl.CallContext) (utpl.Value, error) {
	arg := call.Arg(0)
	if arg.Kind() != utpl.KindString {
		return utpl.NewNull(), fmt.Errorf("yaml.parse expects a string, got %s", arg.Kind())
	}

	file, err := parser.ParseBytes([]byte(arg.Str()), 0)
	if err != nil {
		return utpl.NewNull(), fmt.Errorf("yaml.parse: %v", err)
	}
	if len(file.Docs) == 0 || file.Docs[0].Body == nil {
		return utpl.NewNull(), nil
	}
	return fromNode(file.Docs[0].Body, make(map[string]ast.Node))
}

func stringify(call *utpl.CallContext) (utpl.Value, error) {
	doc, err := toYAML(call.Arg(0), make(map[any]struct{}))
	if err != nil {
		return utpl.NewNull(), err
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return utpl.NewNull(), fmt.Errorf("yaml.stringify: %v", err)
	}
	return utpl.NewString(string(out)), nil
}

// fromNode converts one document node into a template value. Mapping nodes
// keep document key order through the ordered object. Anchors are recorded
// so aliases resolve to their anchored subtree.
func fromNode(node ast.Node, anchors map[string]ast.Node) (utpl.Value, error) {
	switch n := node.(type) {
	case *ast.NullNode:
		return utpl.NewNull(), nil
	case *ast.BoolNode:
		return utpl.NewBool(n.Value), nil
	case *ast.IntegerNode:
		switch v := n.Value.(type) {
		case int64:
			return utpl.NewInt(v), nil
		case uint64:
			if v > math.MaxInt64 {
				return utpl.NewDouble(float64(v)), nil
			}
			return utpl.NewInt(int64(v)), nil
		default:
			return utpl.NewNull(), fmt.Errorf("yaml.parse: unsupported integer type %T", n.Value)
		}
	case *ast.FloatNode:
		return utpl.NewDouble(n.Value), nil
	case *ast.InfinityNode:
		return utpl.NewDouble(n.Value), nil
	case *ast.NanNode:
		return utpl.NewDouble(math.NaN()), nil
	case *ast.StringNode:
		return resolveString(n), nil
	case *ast.LiteralNode:
		// Block scalars are always strings.
		return utpl.NewString(n.Value.Value), nil
	case *ast.SequenceNode:
		items := make([]utpl.Value, 0, len(n.Values))
		for _, item := range n.Values {
			val, err := fromNode(item, anchors)
			if err != nil {
				return utpl.NewNull(), err
			}
			items = append(items, val)
		}
		return utpl.NewArray(items), nil
	case *ast.MappingNode:
		entries := make([]utpl.ObjectEntry, 0, len(n.Values))
		for _, pair := range n.Values {
			entry, err := mappingEntry(pair, anchors)
			if err != nil {
				return utpl.NewNull(), err
			}
			entries = append(entries, entry)
		}
		return utpl.NewObjectOf(entries...), nil
	case *ast.MappingValueNode:
		// A single-pair document body arrives unwrapped.
		entry, err := mappingEntry(n, anchors)
		if err != nil {
			return utpl.NewNull(), err
		}
		return utpl.NewObjectOf(entry), nil
	case *ast.AnchorNode:
		anchors[n.Name.GetToken().Value] = n.Value
		return fromNode(n.Value, anchors)
	case *ast.AliasNode:
		name := n.Value.GetToken().Value
		target, ok := anchors[name]
		if !ok {
			return utpl.NewNull(), fmt.Errorf("yaml.parse: unresolved alias *%s", name)
		}
		return fromNode(target, anchors)
	case *ast.TagNode:
		if n.Start.Value == "!!str" {
			if scalar, ok := n.Value.(ast.ScalarNode); ok {
				return utpl.NewString(fmt.Sprint(scalar.GetValue())), nil
			}
		}
		return fromNode(n.Value, anchors)
	default:
		return utpl.NewNull(), fmt.Errorf("yaml.parse: unsupported node type %T", node)
	}
}

func mappingEntry(pair *ast.MappingValueNode, anchors map[string]ast.Node) (utpl.ObjectEntry, error) {
	key, err := fromNode(pair.Key, anchors)
	if err != nil {
		return utpl.ObjectEntry{}, err
	}
	val, err := fromNode(pair.Value, anchors)
	if err != nil {
		return utpl.ObjectEntry{}, err
	}
	return utpl.ObjectEntry{Key: key.String(), Value: val}, nil
}

// resolveString applies YAML 1.1 boolean resolution to plain scalars:
// yes/on and no/off (any case) are booleans, as are true/false spellings
// the core schema leaves as strings. Quoted scalars stay strings.
func resolveString(n *ast.StringNode) utpl.Value {
	if n.GetToken().Type != token.StringType {
		return utpl.NewString(n.Value)
	}
	switch {
	case strings.EqualFold(n.Value, "yes"),
		strings.EqualFold(n.Value, "on"),
		strings.EqualFold(n.Value, "true"):
		return utpl.NewBool(true)
	case strings.EqualFold(n.Value, "no"),
		strings.EqualFold(n.Value, "off"),
		strings.EqualFold(n.Value, "false"):
		return utpl.NewBool(false)
	}
	return utpl.NewString(n.Value)
}

// toYAML converts a template value into a marshalable document. Objects
// become yaml.MapSlice so their insertion order is preserved in the output.
// Functions and cyclic containers cannot be serialized.
func toYAML(v utpl.Value, seen map[any]struct{}) (any, error) {
	switch v.Kind() {
	case utpl.KindNull:
		return nil, nil
	case utpl.KindBool:
		return v.Bool(), nil
	case utpl.KindInt:
		return v.Int(), nil
	case utpl.KindDouble:
		return v.Double(), nil
	case utpl.KindString:
		return v.Str(), nil
	case utpl.KindArray:
		arr := v.Array()
		if _, ok := seen[any(arr)]; ok {
			return nil, fmt.Errorf("yaml.stringify: cannot serialize cyclic structure")
		}
		seen[any(arr)] = struct{}{}
		defer delete(seen, any(arr))

		items := make([]any, len(arr.Items))
		for i, item := range arr.Items {
			node, err := toYAML(item, seen)
			if err != nil {
				return nil, err
			}
			items[i] = node
		}
		return items, nil
	case utpl.KindObject:
		obj := v.Object()
		if _, ok := seen[any(obj)]; ok {
			return nil, fmt.Errorf("yaml.stringify: cannot serialize cyclic structure")
		}
		seen[any(obj)] = struct{}{}
		defer delete(seen, any(obj))

		doc := make(yaml.MapSlice, 0, obj.Len())
		for _, key := range obj.Keys() {
			entry, _ := obj.Get(key)
			node, err := toYAML(entry, seen)
			if err != nil {
				return nil, err
			}
			doc = append(doc, yaml.MapItem{Key: key, Value: node})
		}
		return doc, nil
	default:
		return nil, fmt.Errorf("yaml.stringify: cannot serialize %s value", v.Kind())
	}
}
