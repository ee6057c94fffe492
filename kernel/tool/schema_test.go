package tool

import "testing"

func TestSchemaFor(t *testing.T) {
	type args struct {
		Query  string `json:"query" desc:"What to look for"`
		Course string `json:"course_name,omitempty"`
		Lesson *int   `json:"lesson_number,omitempty"`
	}
	schema := SchemaFor[args]()
	if schema["type"] != "object" {
		t.Fatalf("unexpected schema type: %v", schema["type"])
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("missing properties")
	}
	query, ok := props["query"].(map[string]any)
	if !ok {
		t.Fatalf("missing property query")
	}
	if query["description"] != "What to look for" {
		t.Fatalf("missing description: %v", query)
	}
	lesson, ok := props["lesson_number"].(map[string]any)
	if !ok {
		t.Fatalf("missing property lesson_number")
	}
	if lesson["type"] != "integer" {
		t.Fatalf("lesson_number type = %v", lesson["type"])
	}
	required, ok := schema["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "query" {
		t.Fatalf("required = %v", schema["required"])
	}
}
