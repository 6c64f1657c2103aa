package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestBuildGeminiSchema(t *testing.T) {
	schema := buildGeminiSchema(termDetailSchema().Definition)

	if schema.Type != genai.TypeObject {
		t.Fatalf("type = %s, want OBJECT", schema.Type)
	}
	if len(schema.Properties) != 3 {
		t.Fatalf("got %d properties, want 3", len(schema.Properties))
	}
	if schema.Properties["detail"].Type != genai.TypeString {
		t.Errorf("detail type = %s", schema.Properties["detail"].Type)
	}
	if got := schema.Properties["confidence"].Enum; len(got) != 3 || got[0] != "high" {
		t.Errorf("confidence enum = %v", got)
	}
	related := schema.Properties["related"]
	if related.Type != genai.TypeArray || related.Items == nil || related.Items.Type != genai.TypeString {
		t.Errorf("related = %+v", related)
	}
	if len(schema.Required) != 2 {
		t.Errorf("required = %v", schema.Required)
	}
}

func TestGeminiEmbedder_Name(t *testing.T) {
	tests := []struct {
		e    *GeminiEmbedder
		want string
	}{
		{&GeminiEmbedder{model: "gemini-embedding-001"}, "gemini/gemini-embedding-001"},
		{&GeminiEmbedder{model: "gemini-embedding-001", dimensions: 768}, "gemini/gemini-embedding-001/768"},
	}
	for _, tt := range tests {
		if got := tt.e.Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
	}
}
