package hessian

import (
	"encoding/base64"
	"math"
	"strconv"
	"time"
)

// Plain converts a value tree into maps, slices and scalars that encode
// cleanly as JSON or YAML. A composite reached a second time (shared or
// cyclic) is written as {"$ref": id}. Binary becomes base64 and dates
// become RFC 3339 strings.
func Plain(v any) any {
	p := &plainer{seen: make(map[any]bool)}
	return p.value(v)
}

type plainer struct {
	seen map[any]bool
}

func (p *plainer) once(v any, id int) (map[string]any, bool) {
	if p.seen[v] {
		return map[string]any{"$ref": id}, false
	}
	p.seen[v] = true
	return nil, true
}

func (p *plainer) value(v any) any {
	switch x := v.(type) {
	case nil, bool, int32, int64, string:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return strconv.FormatFloat(x, 'g', -1, 64)
		}
		return x
	case XML:
		return string(x)
	case []byte:
		return base64.StdEncoding.EncodeToString(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case Ref:
		return map[string]any{"$ref": int(x)}
	case *Map:
		if ref, first := p.once(x, x.ID); !first {
			return ref
		}
		out := map[string]any{"kind": string(KindMap), "id": x.ID, "entries": p.entries(x.Entries)}
		if x.Type != "" {
			out["type"] = x.Type
		}
		return out
	case *List:
		if ref, first := p.once(x, x.ID); !first {
			return ref
		}
		out := map[string]any{"kind": string(KindList), "id": x.ID, "items": p.slice(x.Items)}
		if x.Type != "" {
			out["type"] = x.Type
		}
		if x.Length >= 0 {
			out["length"] = x.Length
		}
		return out
	case *Object:
		if ref, first := p.once(x, x.ID); !first {
			return ref
		}
		fields := make(map[string]any, len(x.Values))
		for i, val := range x.Values {
			if i < len(x.Def.Fields) {
				fields[x.Def.Fields[i]] = p.value(val)
			}
		}
		return map[string]any{"kind": string(KindObject), "id": x.ID, "type": x.Def.Type, "fields": fields}
	case *Remote:
		return map[string]any{"kind": string(KindRemote), "type": x.Type, "value": p.value(x.Value)}
	case *Fault:
		if ref, first := p.once(x, x.ID); !first {
			return ref
		}
		return map[string]any{"kind": string(KindFault), "id": x.ID, "entries": p.entries(x.Entries)}
	case *Call:
		return map[string]any{
			"kind":    string(KindCall),
			"version": x.Version.String(),
			"headers": p.headers(x.Headers),
			"method":  x.Method,
			"args":    p.slice(x.Args),
		}
	case *Reply:
		out := map[string]any{
			"kind":    string(KindReply),
			"version": x.Version.String(),
			"headers": p.headers(x.Headers),
		}
		if x.Fault != nil {
			out["fault"] = p.value(x.Fault)
		} else {
			out["value"] = p.value(x.Value)
		}
		return out
	}
	return v
}

func (p *plainer) slice(items []any) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = p.value(item)
	}
	return out
}

func (p *plainer) entries(entries []Entry) []any {
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = map[string]any{"key": p.value(e.Key), "value": p.value(e.Value)}
	}
	return out
}

func (p *plainer) headers(headers []Header) []any {
	out := make([]any, len(headers))
	for i, h := range headers {
		out[i] = map[string]any{"name": h.Name, "value": p.value(h.Value)}
	}
	return out
}
