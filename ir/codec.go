package ir

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// nodeFixedKeys are the Node struct fields decoded explicitly; every
// other key in a node's mapping becomes an entry in Args (spec section
// 6: "Unknown fields on nodes are preserved").
var nodeFixedKeys = map[string]bool{
	"id": true, "op": true, "comment": true,
	"exec_in": true, "exec_out": true, "exec_true": true, "exec_false": true,
	"exec_body": true, "exec_completed": true, "next": true,
	"threads": true, "dispatch": true, "dimensions": true,
}

// UnmarshalYAML decodes a node's fixed execution-flow fields and
// collects every remaining key into Args, the per-op argument map
// (spec section 3: "arbitrary argument fields per the op schema").
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]interface{}
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("ir: decoding node: %w", err)
	}

	*n = Node{Args: make(map[string]interface{})}
	for key, v := range raw {
		switch key {
		case "id":
			n.ID, _ = v.(string)
		case "op":
			n.Op, _ = v.(string)
		case "comment":
			n.Comment, _ = v.(string)
		case "exec_in":
			n.ExecIn, _ = v.(string)
		case "exec_out":
			n.ExecOut, _ = v.(string)
		case "exec_true":
			n.ExecTrue, _ = v.(string)
		case "exec_false":
			n.ExecFalse, _ = v.(string)
		case "exec_body":
			n.ExecBody, _ = v.(string)
		case "exec_completed":
			n.ExecCompleted, _ = v.(string)
		case "next":
			n.Next, _ = v.(string)
		default:
			if !nodeFixedKeys[key] {
				n.Args[key] = v
			}
		}
	}
	n.Threads = normalizeThreads(raw)
	return nil
}

// MarshalYAML re-expands Args back into the node's flat mapping so a
// round-tripped document preserves unknown-field forward compatibility.
func (n Node) MarshalYAML() (interface{}, error) {
	out := make(map[string]interface{}, len(n.Args)+8)
	for k, v := range n.Args {
		out[k] = v
	}
	out["id"] = n.ID
	out["op"] = n.Op
	if n.Comment != "" {
		out["comment"] = n.Comment
	}
	setIf := func(key, v string) {
		if v != "" {
			out[key] = v
		}
	}
	setIf("exec_in", n.ExecIn)
	setIf("exec_out", n.ExecOut)
	setIf("exec_true", n.ExecTrue)
	setIf("exec_false", n.ExecFalse)
	setIf("exec_body", n.ExecBody)
	setIf("exec_completed", n.ExecCompleted)
	setIf("next", n.Next)
	return out, nil
}

// UnmarshalYAML decodes a Type from either its canonical string
// spelling ("float3", "array<int, 4>", "struct Particle") or, for
// array/struct shapes authored as a mapping, an equivalent
// {kind, of, len, struct} form.
func (t *Type) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		parsed, err := ParseType(s)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	}
	var raw struct {
		Kind   string `yaml:"kind"`
		Of     *Type  `yaml:"of"`
		Len    int    `yaml:"len"`
		Struct string `yaml:"struct"`
	}
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("ir: decoding type: %w", err)
	}
	kind, ok := kindByName(raw.Kind)
	if !ok {
		return fmt.Errorf("ir: unknown type kind %q", raw.Kind)
	}
	*t = Type{Kind: kind, Of: raw.Of, Len: raw.Len, Struct: raw.Struct}
	return nil
}

// MarshalYAML renders a Type back to its canonical string spelling.
func (t Type) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// LoadDocument decodes a document from its structured (YAML) source
// form and normalises node id lookups for every function, so BuildEdges
// and FirstExecNode are immediately usable (spec section 9, Design Note
// "Data-edge resolution").
func LoadDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ir: decoding document: %w", err)
	}
	for i := range doc.Functions {
		doc.Functions[i].Index()
	}
	return &doc, nil
}
