package gemini

import "testing"

func TestExtractFirstJSON_SurroundedByProse(t *testing.T) {
	// WHAT: one balanced block inside prose is found and parsed.
	s := "Claro, aquí está el resultado:\n{\"tipo_documento\": \"Factura\", \"categoria_aplicada\": \"FEV_procesadas\"}\nEspero que ayude."
	obj, ok := ExtractFirstJSON(s)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if obj["tipo_documento"] != "Factura" {
		t.Errorf("tipo_documento = %v", obj["tipo_documento"])
	}
}

func TestExtractFirstJSON_NoBlock(t *testing.T) {
	if _, ok := ExtractFirstJSON("no json here at all"); ok {
		t.Fatal("expected no extraction")
	}
}

func TestExtractFirstJSON_UnbalancedThenBalanced(t *testing.T) {
	// WHAT: a block that fails to parse is skipped; the scan continues.
	s := `{not json} and then {"ok": true}`
	obj, ok := ExtractFirstJSON(s)
	if !ok {
		t.Fatal("expected the second block to parse")
	}
	if obj["ok"] != true {
		t.Errorf("ok = %v", obj["ok"])
	}
}

func TestExtractFirstJSON_NestedBraces(t *testing.T) {
	s := `prefix {"outer": {"inner": 1}, "k": "v"} suffix`
	obj, ok := ExtractFirstJSON(s)
	if !ok {
		t.Fatal("expected extraction")
	}
	if _, has := obj["outer"]; !has {
		t.Error("nested object lost")
	}
}

func TestExtractFirstJSON_DanglingClose(t *testing.T) {
	// WHAT: stray closing braces before any open are ignored.
	s := `}} {"a": 1}`
	obj, ok := ExtractFirstJSON(s)
	if !ok || obj["a"].(float64) != 1 {
		t.Fatalf("got %v %v", obj, ok)
	}
}

func TestParseResult_FencedCodeBlock(t *testing.T) {
	// WHAT: a markdown-fenced answer still yields the embedded object.
	raw := "```json\n{\"tipo_documento\":\"Nota credito\",\"categoria_aplicada\":\"NC_procesadas\"}\n```"
	res, ok := parseResult(raw)
	if !ok {
		t.Fatal("expected parse")
	}
	if res.DocumentType != "Nota credito" || res.AppliedCategory != "NC_procesadas" {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Raw != raw {
		t.Error("raw text not preserved")
	}
}

func TestParseResult_MissingKeys(t *testing.T) {
	// WHAT: a well-formed object without both required keys is not a result.
	if _, ok := parseResult(`{"tipo_documento": "Factura"}`); ok {
		t.Fatal("expected failure without categoria_aplicada")
	}
	if _, ok := parseResult(`{"categoria_aplicada": "FEV_procesadas"}`); ok {
		t.Fatal("expected failure without tipo_documento")
	}
}
