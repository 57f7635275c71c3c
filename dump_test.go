package treelite

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDumpAsJSON_DeterministicAcrossRepeatedCalls(t *testing.T) {
	m := buildGroveMulticlass(t)
	first, err := m.DumpAsJSON(false)
	if err != nil {
		t.Fatalf("DumpAsJSON: %v", err)
	}
	second, err := m.DumpAsJSON(false)
	if err != nil {
		t.Fatalf("DumpAsJSON: %v", err)
	}
	if first != second {
		t.Fatalf("DumpAsJSON is not deterministic:\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestDumpAsJSON_PrettyAndCompactDifferOnlyInWhitespace(t *testing.T) {
	m := buildCategoricalStump(t)
	pretty, err := m.DumpAsJSON(true)
	if err != nil {
		t.Fatalf("DumpAsJSON(true): %v", err)
	}
	compact, err := m.DumpAsJSON(false)
	if err != nil {
		t.Fatalf("DumpAsJSON(false): %v", err)
	}
	if pretty == compact {
		t.Fatalf("pretty and compact dumps should differ in whitespace")
	}

	var prettyVal, compactVal any
	if err := json.Unmarshal([]byte(pretty), &prettyVal); err != nil {
		t.Fatalf("unmarshal pretty dump: %v", err)
	}
	if err := json.Unmarshal([]byte(compact), &compactVal); err != nil {
		t.Fatalf("unmarshal compact dump: %v", err)
	}
	reencodedPretty, _ := json.Marshal(prettyVal)
	reencodedCompact, _ := json.Marshal(compactVal)
	if string(reencodedPretty) != string(reencodedCompact) {
		t.Fatalf("pretty and compact dumps decode to different values")
	}
	if !strings.Contains(pretty, "\n") {
		t.Fatalf("pretty dump should contain newlines")
	}
}

func TestDumpAsJSON_CategoricalNodeIncludesSortedCategoryList(t *testing.T) {
	m := buildCategoricalStump(t)
	out, err := m.DumpAsJSON(false)
	if err != nil {
		t.Fatalf("DumpAsJSON: %v", err)
	}
	if !strings.Contains(out, `"category_list":[1,3]`) {
		t.Fatalf("expected sorted deduped category_list [1,3] in dump, got: %s", out)
	}
}

func TestDumpAsJSON_LeafVectorNodeUsesArrayLeafValue(t *testing.T) {
	m := buildForestLeafVector(t)
	out, err := m.DumpAsJSON(false)
	if err != nil {
		t.Fatalf("DumpAsJSON: %v", err)
	}
	if !strings.Contains(out, `"leaf_value":[1,0,0]`) {
		t.Fatalf("expected leaf vector [1,0,0] in dump, got: %s", out)
	}
}
