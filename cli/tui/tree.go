package tui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/justapithecus/hessian/hessian"
)

// Node is one row of the inspect tree.
type Node struct {
	// Label names the node within its parent (index, key or field).
	Label string
	// Kind is the hessian value kind, or "" for grouping nodes.
	Kind string
	// Value is the scalar rendering or a composite summary.
	Value    string
	Children []*Node
}

// BuildTree converts decoded messages into a navigable tree. Shared and
// cyclic composites are expanded once; later occurrences become ref leaves.
func BuildTree(title string, messages []any) *Node {
	b := &treeBuilder{seen: make(map[any]bool)}
	root := &Node{Label: title, Value: fmt.Sprintf("%d messages", len(messages))}
	for i, msg := range messages {
		root.Children = append(root.Children, b.node(fmt.Sprintf("message %d", i), msg))
	}
	return root
}

type treeBuilder struct {
	seen map[any]bool
}

func (b *treeBuilder) node(label string, v any) *Node {
	switch x := v.(type) {
	case nil:
		return &Node{Label: label, Kind: string(hessian.KindNull), Value: "null"}
	case bool:
		return &Node{Label: label, Kind: string(hessian.KindBool), Value: strconv.FormatBool(x)}
	case int32:
		return &Node{Label: label, Kind: string(hessian.KindInt), Value: strconv.FormatInt(int64(x), 10)}
	case int64:
		return &Node{Label: label, Kind: string(hessian.KindLong), Value: strconv.FormatInt(x, 10)}
	case float64:
		return &Node{Label: label, Kind: string(hessian.KindDouble), Value: strconv.FormatFloat(x, 'g', -1, 64)}
	case string:
		return &Node{Label: label, Kind: string(hessian.KindString), Value: strconv.Quote(x)}
	case hessian.XML:
		return &Node{Label: label, Kind: string(hessian.KindXML), Value: strconv.Quote(string(x))}
	case []byte:
		return &Node{Label: label, Kind: string(hessian.KindBinary), Value: fmt.Sprintf("%d bytes", len(x))}
	case time.Time:
		return &Node{Label: label, Kind: string(hessian.KindDate), Value: x.UTC().Format(time.RFC3339Nano)}
	case hessian.Ref:
		return &Node{Label: label, Kind: string(hessian.KindRef), Value: fmt.Sprintf("#%d", int(x))}

	case *hessian.Map:
		if b.revisit(x) {
			return refNode(label, "map", x.ID)
		}
		n := &Node{Label: label, Kind: string(hessian.KindMap), Value: composite("map", x.Type, x.ID, len(x.Entries), "entries")}
		n.Children = b.entries(x.Entries)
		return n

	case *hessian.List:
		if b.revisit(x) {
			return refNode(label, "list", x.ID)
		}
		n := &Node{Label: label, Kind: string(hessian.KindList), Value: composite("list", x.Type, x.ID, len(x.Items), "items")}
		for i, item := range x.Items {
			n.Children = append(n.Children, b.node(fmt.Sprintf("[%d]", i), item))
		}
		return n

	case *hessian.Object:
		if b.revisit(x) {
			return refNode(label, x.Def.Type, x.ID)
		}
		n := &Node{Label: label, Kind: string(hessian.KindObject), Value: fmt.Sprintf("%s #%d", x.Def.Type, x.ID)}
		for i, val := range x.Values {
			field := fmt.Sprintf("field %d", i)
			if i < len(x.Def.Fields) {
				field = x.Def.Fields[i]
			}
			n.Children = append(n.Children, b.node(field, val))
		}
		return n

	case *hessian.Remote:
		n := &Node{Label: label, Kind: string(hessian.KindRemote), Value: x.Type}
		n.Children = []*Node{b.node("url", x.Value)}
		return n

	case *hessian.Fault:
		if b.revisit(x) {
			return refNode(label, "fault", x.ID)
		}
		n := &Node{Label: label, Kind: string(hessian.KindFault), Value: fmt.Sprintf("fault #%d", x.ID)}
		n.Children = b.entries(x.Entries)
		return n

	case *hessian.Call:
		n := &Node{Label: label, Kind: string(hessian.KindCall), Value: fmt.Sprintf("%s (v%s)", x.Method, x.Version)}
		n.Children = b.headers(x.Headers)
		for i, arg := range x.Args {
			n.Children = append(n.Children, b.node(fmt.Sprintf("arg %d", i), arg))
		}
		return n

	case *hessian.Reply:
		n := &Node{Label: label, Kind: string(hessian.KindReply), Value: "v" + x.Version.String()}
		n.Children = b.headers(x.Headers)
		if x.Fault != nil {
			n.Children = append(n.Children, b.node("fault", x.Fault))
		} else {
			n.Children = append(n.Children, b.node("value", x.Value))
		}
		return n
	}
	return &Node{Label: label, Value: fmt.Sprintf("%v", v)}
}

// revisit marks v seen and reports whether it was seen before.
func (b *treeBuilder) revisit(v any) bool {
	if b.seen[v] {
		return true
	}
	b.seen[v] = true
	return false
}

func (b *treeBuilder) entries(entries []hessian.Entry) []*Node {
	out := make([]*Node, 0, len(entries))
	for i, e := range entries {
		key := b.node("key", e.Key)
		if len(key.Children) == 0 && key.Kind != string(hessian.KindRef) {
			out = append(out, b.node(key.Value, e.Value))
			continue
		}
		// Composite keys get their own entry node.
		out = append(out, &Node{
			Label:    fmt.Sprintf("entry %d", i),
			Children: []*Node{key, b.node("value", e.Value)},
		})
	}
	return out
}

func (b *treeBuilder) headers(headers []hessian.Header) []*Node {
	out := make([]*Node, 0, len(headers))
	for _, h := range headers {
		out = append(out, b.node("header "+h.Name, h.Value))
	}
	return out
}

func refNode(label, what string, id int) *Node {
	return &Node{Label: label, Kind: string(hessian.KindRef), Value: fmt.Sprintf("-> %s #%d", what, id)}
}

func composite(kind, typeName string, id, n int, unit string) string {
	if typeName != "" {
		return fmt.Sprintf("%s %s #%d (%d %s)", kind, typeName, id, n, unit)
	}
	return fmt.Sprintf("%s #%d (%d %s)", kind, id, n, unit)
}

// row is a visible tree line.
type row struct {
	node  *Node
	depth int
}

// flatten lists the visible nodes in display order.
func flatten(root *Node, collapsed map[*Node]bool) []row {
	var rows []row
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		rows = append(rows, row{node: n, depth: depth})
		if collapsed[n] {
			return
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	if root != nil {
		walk(root, 0)
	}
	return rows
}
