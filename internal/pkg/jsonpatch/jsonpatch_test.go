package jsonpatch

import (
	"encoding/json"
	"reflect"
	"testing"
)

func mustDoc(t *testing.T, raw string) any {
	t.Helper()
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("bad test document: %v", err)
	}
	return doc
}

func apply(t *testing.T, doc, patch string) any {
	t.Helper()
	p, err := Decode([]byte(patch))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out, err := p.Apply(mustDoc(t, doc))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return out
}

func TestDecode_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `{`,
		"not an array":    `{"op":"add"}`,
		"unknown op":      `[{"op":"merge","path":"/a"}]`,
		"missing value":   `[{"op":"replace","path":"/a"}]`,
		"bad pointer":     `[{"op":"remove","path":"a"}]`,
		"bad from pointer": `[{"op":"move","path":"/a","from":"b"}]`,
	}
	for name, raw := range cases {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Errorf("%s: expected decode error", name)
		}
	}
}

func TestApply_Replace(t *testing.T) {
	out := apply(t,
		`{"status":"todo","description":"write the report"}`,
		`[{"op":"replace","path":"/status","value":"done"}]`)

	want := mustDoc(t, `{"status":"done","description":"write the report"}`)
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
}

func TestApply_ReplaceMissingPath(t *testing.T) {
	p, _ := Decode([]byte(`[{"op":"replace","path":"/missing","value":1}]`))
	if _, err := p.Apply(mustDoc(t, `{"a":1}`)); err == nil {
		t.Fatalf("expected error for missing path")
	}
}

func TestApply_AddAndRemove(t *testing.T) {
	out := apply(t,
		`{"tags":["a","c"]}`,
		`[{"op":"add","path":"/tags/1","value":"b"},
		  {"op":"add","path":"/tags/-","value":"d"},
		  {"op":"add","path":"/note","value":"hi"},
		  {"op":"remove","path":"/tags/0"}]`)

	want := mustDoc(t, `{"tags":["b","c","d"],"note":"hi"}`)
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
}

func TestApply_MoveAndCopy(t *testing.T) {
	out := apply(t,
		`{"a":{"x":1},"b":{}}`,
		`[{"op":"move","from":"/a/x","path":"/b/x"},
		  {"op":"copy","from":"/b/x","path":"/b/y"}]`)

	want := mustDoc(t, `{"a":{},"b":{"x":1,"y":1}}`)
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
}

func TestApply_MoveIntoOwnChild(t *testing.T) {
	p, _ := Decode([]byte(`[{"op":"move","from":"/a","path":"/a/b"}]`))
	if _, err := p.Apply(mustDoc(t, `{"a":{}}`)); err == nil {
		t.Fatalf("expected error moving a value into its own child")
	}
}

func TestApply_Test(t *testing.T) {
	doc := `{"status":"todo","n":5}`

	// Passing assertions leave the document as-is.
	out := apply(t, doc,
		`[{"op":"test","path":"/status","value":"todo"},
		  {"op":"test","path":"/n","value":5}]`)
	if !reflect.DeepEqual(out, mustDoc(t, doc)) {
		t.Fatalf("test ops mutated the document: %v", out)
	}

	p, _ := Decode([]byte(`[{"op":"test","path":"/status","value":"done"}]`))
	if _, err := p.Apply(mustDoc(t, doc)); err == nil {
		t.Fatalf("expected failed test assertion")
	}
}

func TestApply_FailedOpLeavesInputUntouched(t *testing.T) {
	doc := mustDoc(t, `{"status":"todo"}`)
	p, _ := Decode([]byte(`[{"op":"replace","path":"/status","value":"done"},
	                        {"op":"remove","path":"/missing"}]`))

	if _, err := p.Apply(doc); err == nil {
		t.Fatalf("expected error")
	}
	// The first op succeeded on the working copy; the input must not show it.
	if doc.(map[string]any)["status"] != "todo" {
		t.Fatalf("input document mutated: %v", doc)
	}
}

func TestApply_PointerEscapes(t *testing.T) {
	out := apply(t,
		`{"a/b":1,"m~n":2}`,
		`[{"op":"replace","path":"/a~1b","value":10},
		  {"op":"replace","path":"/m~0n","value":20}]`)

	want := mustDoc(t, `{"a/b":10,"m~n":20}`)
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
}

func TestApply_WholeDocument(t *testing.T) {
	out := apply(t, `{"a":1}`, `[{"op":"replace","path":"","value":{"b":2}}]`)
	want := mustDoc(t, `{"b":2}`)
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
}

func TestArrayIndex_Strictness(t *testing.T) {
	for _, patch := range []string{
		`[{"op":"replace","path":"/a/01","value":1}]`,
		`[{"op":"replace","path":"/a/2","value":1}]`,
		`[{"op":"replace","path":"/a/-1","value":1}]`,
		`[{"op":"remove","path":"/a/-"}]`,
	} {
		p, err := Decode([]byte(patch))
		if err != nil {
			t.Fatalf("Decode(%s): %v", patch, err)
		}
		if _, err := p.Apply(mustDoc(t, `{"a":[1,2]}`)); err == nil {
			t.Errorf("expected index error for %s", patch)
		}
	}
}
