// Package jsonpatch implements an RFC 6902 patch interpreter over generic
// JSON values as produced by encoding/json (map[string]any, []any, scalars).
//
// A patch is an ordered list of operations; Apply evaluates them in order
// against a deep copy of the input document, so the input is never mutated
// and a failing operation leaves the caller's document untouched.
package jsonpatch

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Operation is a single RFC 6902 patch operation.
type Operation struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	From  string          `json:"from,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Patch is an ordered sequence of operations.
type Patch []Operation

// Decode parses and structurally validates a patch document. It fails when
// the document is not a JSON array of operations, an op is unknown, or a
// required member (path, from, value) is missing.
func Decode(data []byte) (Patch, error) {
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	for i, op := range p {
		switch op.Op {
		case "add", "replace", "test":
			if len(op.Value) == 0 {
				return nil, fmt.Errorf("decode patch: op %d (%s): missing value", i, op.Op)
			}
		case "remove":
		case "move", "copy":
			if err := validatePointer(op.From); err != nil {
				return nil, fmt.Errorf("decode patch: op %d (%s): from: %w", i, op.Op, err)
			}
		default:
			return nil, fmt.Errorf("decode patch: op %d: unknown op %q", i, op.Op)
		}
		if err := validatePointer(op.Path); err != nil {
			return nil, fmt.Errorf("decode patch: op %d (%s): path: %w", i, op.Op, err)
		}
	}
	return p, nil
}

// Apply evaluates the patch against doc and returns the patched document.
// doc must be a generic JSON value; it is deep-copied before any operation
// runs. Failure of any operation (missing path, out-of-range index, failed
// test) aborts the whole patch.
func (p Patch) Apply(doc any) (any, error) {
	out := copyValue(doc)
	var err error
	for i, op := range p {
		out, err = applyOp(out, op)
		if err != nil {
			return nil, fmt.Errorf("op %d (%s %s): %w", i, op.Op, op.Path, err)
		}
	}
	return out, nil
}

func applyOp(doc any, op Operation) (any, error) {
	switch op.Op {
	case "add":
		value, err := decodeValue(op.Value)
		if err != nil {
			return nil, err
		}
		return add(doc, parsePointer(op.Path), value)
	case "remove":
		return remove(doc, parsePointer(op.Path))
	case "replace":
		value, err := decodeValue(op.Value)
		if err != nil {
			return nil, err
		}
		return replace(doc, parsePointer(op.Path), value)
	case "move":
		if op.From != op.Path && strings.HasPrefix(op.Path, op.From+"/") {
			return nil, fmt.Errorf("from %q is a prefix of path", op.From)
		}
		value, err := get(doc, parsePointer(op.From))
		if err != nil {
			return nil, err
		}
		moved := copyValue(value)
		doc, err = remove(doc, parsePointer(op.From))
		if err != nil {
			return nil, err
		}
		return add(doc, parsePointer(op.Path), moved)
	case "copy":
		value, err := get(doc, parsePointer(op.From))
		if err != nil {
			return nil, err
		}
		return add(doc, parsePointer(op.Path), copyValue(value))
	case "test":
		expected, err := decodeValue(op.Value)
		if err != nil {
			return nil, err
		}
		actual, err := get(doc, parsePointer(op.Path))
		if err != nil {
			return nil, err
		}
		if !reflect.DeepEqual(actual, expected) {
			return nil, fmt.Errorf("test failed at %q", op.Path)
		}
		return doc, nil
	default:
		return nil, fmt.Errorf("unknown op %q", op.Op)
	}
}

// validatePointer checks RFC 6901 syntax: the empty string (whole document)
// or a string starting with "/".
func validatePointer(ptr string) error {
	if ptr != "" && !strings.HasPrefix(ptr, "/") {
		return fmt.Errorf("invalid pointer %q", ptr)
	}
	return nil
}

// parsePointer splits an RFC 6901 pointer into unescaped reference tokens.
func parsePointer(ptr string) []string {
	if ptr == "" {
		return nil
	}
	parts := strings.Split(ptr, "/")[1:]
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return parts
}

func decodeValue(raw json.RawMessage) (any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return v, nil
}

// get resolves a token path against the document.
func get(doc any, tokens []string) (any, error) {
	node := doc
	for _, tok := range tokens {
		switch n := node.(type) {
		case map[string]any:
			child, ok := n[tok]
			if !ok {
				return nil, fmt.Errorf("member %q not found", tok)
			}
			node = child
		case []any:
			i, err := arrayIndex(tok, len(n), false)
			if err != nil {
				return nil, err
			}
			node = n[i]
		default:
			return nil, fmt.Errorf("cannot descend into %T at %q", node, tok)
		}
	}
	return node, nil
}

// add inserts value at the token path. For arrays the token may be "-" to
// append; for maps the member is created or overwritten.
func add(doc any, tokens []string, value any) (any, error) {
	if len(tokens) == 0 {
		return value, nil
	}
	return mutate(doc, tokens, func(parent any, tok string) (any, error) {
		switch p := parent.(type) {
		case map[string]any:
			p[tok] = value
			return p, nil
		case []any:
			if tok == "-" {
				return append(p, value), nil
			}
			i, err := arrayIndex(tok, len(p), true)
			if err != nil {
				return nil, err
			}
			p = append(p, nil)
			copy(p[i+1:], p[i:])
			p[i] = value
			return p, nil
		default:
			return nil, fmt.Errorf("cannot add to %T", parent)
		}
	})
}

// remove deletes the value at the token path; the target must exist.
func remove(doc any, tokens []string) (any, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("cannot remove whole document")
	}
	return mutate(doc, tokens, func(parent any, tok string) (any, error) {
		switch p := parent.(type) {
		case map[string]any:
			if _, ok := p[tok]; !ok {
				return nil, fmt.Errorf("member %q not found", tok)
			}
			delete(p, tok)
			return p, nil
		case []any:
			i, err := arrayIndex(tok, len(p), false)
			if err != nil {
				return nil, err
			}
			return append(p[:i], p[i+1:]...), nil
		default:
			return nil, fmt.Errorf("cannot remove from %T", parent)
		}
	})
}

// replace overwrites the value at the token path; the target must exist.
func replace(doc any, tokens []string, value any) (any, error) {
	if len(tokens) == 0 {
		return value, nil
	}
	return mutate(doc, tokens, func(parent any, tok string) (any, error) {
		switch p := parent.(type) {
		case map[string]any:
			if _, ok := p[tok]; !ok {
				return nil, fmt.Errorf("member %q not found", tok)
			}
			p[tok] = value
			return p, nil
		case []any:
			i, err := arrayIndex(tok, len(p), false)
			if err != nil {
				return nil, err
			}
			p[i] = value
			return p, nil
		default:
			return nil, fmt.Errorf("cannot replace in %T", parent)
		}
	})
}

// mutate walks to the parent of the final token and applies leaf to it,
// re-linking containers on the way back up (slices may be reallocated).
func mutate(node any, tokens []string, leaf func(parent any, tok string) (any, error)) (any, error) {
	if len(tokens) == 1 {
		return leaf(node, tokens[0])
	}
	tok := tokens[0]
	switch n := node.(type) {
	case map[string]any:
		child, ok := n[tok]
		if !ok {
			return nil, fmt.Errorf("member %q not found", tok)
		}
		updated, err := mutate(child, tokens[1:], leaf)
		if err != nil {
			return nil, err
		}
		n[tok] = updated
		return n, nil
	case []any:
		i, err := arrayIndex(tok, len(n), false)
		if err != nil {
			return nil, err
		}
		updated, err := mutate(n[i], tokens[1:], leaf)
		if err != nil {
			return nil, err
		}
		n[i] = updated
		return n, nil
	default:
		return nil, fmt.Errorf("cannot descend into %T at %q", node, tok)
	}
}

// arrayIndex parses a token as an array index. When inserting, len(array)
// itself is a valid position.
func arrayIndex(tok string, length int, inserting bool) (int, error) {
	if tok == "-" {
		return 0, fmt.Errorf(`"-" is only valid when adding`)
	}
	// RFC 6901 forbids leading zeros.
	if len(tok) > 1 && tok[0] == '0' {
		return 0, fmt.Errorf("invalid array index %q", tok)
	}
	i, err := strconv.Atoi(tok)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid array index %q", tok)
	}
	max := length - 1
	if inserting {
		max = length
	}
	if i > max {
		return 0, fmt.Errorf("array index %d out of range (len %d)", i, length)
	}
	return i, nil
}

// copyValue deep-copies a generic JSON value.
func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = copyValue(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = copyValue(child)
		}
		return out
	default:
		return v
	}
}
