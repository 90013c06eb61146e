package ir

import "strings"

// EdgeKind classifies an Edge as carrying value flow or ordering.
type EdgeKind uint8

const (
	EdgeData EdgeKind = iota
	EdgeExec
)

// Edge is the explicit form of a reference a document's implicit
// string-valued arguments (or exec_* fields) encode. BuildEdges
// normalises a document's implicit references into this form;
// both representations are semantically equivalent (spec section 3).
type Edge struct {
	From     string // source node id
	FromPort string // swizzle/sub-component, or "" for the whole value
	To       string // destination node id
	ToPort   string // destination argument name
	Kind     EdgeKind
}

// BuildEdges normalises a function's implicit data/exec references
// into an explicit edge list. A data reference is any string argument
// value that equals an existing sibling node's id, optionally suffixed
// with ".<swizzle>"; everything else is a literal.
func BuildEdges(fn *Function) []Edge {
	if fn.nodeIndex == nil {
		fn.Index()
	}
	var edges []Edge
	for _, n := range fn.Nodes {
		for argName, val := range n.Args {
			for _, ref := range dataRefsIn(fn, val) {
				edges = append(edges, Edge{From: ref.NodeID, FromPort: ref.Port, To: n.ID, ToPort: argName, Kind: EdgeData})
			}
		}
		for _, ef := range []struct {
			field string
			val   string
		}{
			{"exec_in", n.ExecIn}, {"exec_out", n.ExecOut}, {"exec_true", n.ExecTrue},
			{"exec_false", n.ExecFalse}, {"exec_body", n.ExecBody},
			{"exec_completed", n.ExecCompleted}, {"next", n.Next},
		} {
			if ef.val == "" {
				continue
			}
			edges = append(edges, Edge{From: n.ID, To: ef.val, Kind: EdgeExec})
		}
	}
	return edges
}

// DataRef is a resolved data reference: the sibling node id an
// argument string named, plus an optional swizzle/field port.
type DataRef struct {
	NodeID string
	Port   string
}

// dataRefsIn recursively scans an argument value (which may be a
// nested array of strings) for sibling-node references.
func dataRefsIn(fn *Function, val interface{}) []DataRef {
	switch v := val.(type) {
	case string:
		if ref, ok := ResolveDataRef(fn, v); ok {
			return []DataRef{ref}
		}
		return nil
	case []interface{}:
		var out []DataRef
		for _, e := range v {
			out = append(out, dataRefsIn(fn, e)...)
		}
		return out
	default:
		return nil
	}
}

// ResolveDataRef reports whether s names a sibling node in fn, with an
// optional ".<swizzle>" suffix, and if so returns the referenced node
// id and the swizzle/port portion.
func ResolveDataRef(fn *Function, s string) (DataRef, bool) {
	base, port, hasPort := strings.Cut(s, ".")
	if _, ok := fn.Node(base); ok {
		if hasPort {
			return DataRef{NodeID: base, Port: port}, true
		}
		return DataRef{NodeID: base}, true
	}
	return DataRef{}, false
}

// FirstExecNode returns the id of the function's entry node: the node
// named by the first node's predecessor-free position, i.e. the node
// no other node's exec_out/exec_true/exec_false/exec_body/next points
// to. If Nodes is empty, ok is false.
func FirstExecNode(fn *Function) (string, bool) {
	if len(fn.Nodes) == 0 {
		return "", false
	}
	hasPredecessor := make(map[string]bool, len(fn.Nodes))
	for _, n := range fn.Nodes {
		for _, target := range []string{n.ExecOut, n.ExecTrue, n.ExecFalse, n.ExecBody, n.ExecCompleted, n.Next} {
			if target != "" {
				hasPredecessor[target] = true
			}
		}
	}
	for _, n := range fn.Nodes {
		if !hasPredecessor[n.ID] {
			return n.ID, true
		}
	}
	return fn.Nodes[0].ID, true
}
