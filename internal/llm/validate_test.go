package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func quizItemSchema() *Schema {
	return &Schema{
		Name:        "test-quiz-item",
		Description: "One quiz item",
		Definition: map[string]any{
			"type":     "object",
			"required": []any{"question", "answer"},
			"properties": map[string]any{
				"question": map[string]any{"type": "string"},
				"answer":   map[string]any{"type": "string"},
			},
		},
	}
}

func TestValidateResponse_NilSchemaPasses(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`not even json`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateResponse_ValidPayload(t *testing.T) {
	raw := json.RawMessage(`{"question":"2+2?","answer":"4"}`)
	if err := validateResponse(quizItemSchema(), raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateResponse_MissingRequiredField(t *testing.T) {
	raw := json.RawMessage(`{"question":"2+2?"}`)
	err := validateResponse(quizItemSchema(), raw)
	if err == nil {
		t.Fatal("expected error")
	}
	var invResp *ErrInvalidResponse
	if !errors.As(err, &invResp) {
		t.Fatalf("expected ErrInvalidResponse, got %T", err)
	}
}

func TestValidateResponse_MalformedJSON(t *testing.T) {
	raw := json.RawMessage(`{"question":`)
	err := validateResponse(quizItemSchema(), raw)
	if err == nil {
		t.Fatal("expected error")
	}
	var invResp *ErrInvalidResponse
	if !errors.As(err, &invResp) {
		t.Fatalf("expected ErrInvalidResponse, got %T", err)
	}
}

func TestValidateResponse_WrongType(t *testing.T) {
	raw := json.RawMessage(`{"question":"2+2?","answer":4}`)
	if err := validateResponse(quizItemSchema(), raw); err == nil {
		t.Fatal("expected error for non-string answer")
	}
}

func TestGetCompiledSchema_Caches(t *testing.T) {
	s := quizItemSchema()
	first, err := getCompiledSchema(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := getCompiledSchema(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatal("expected cached schema on second lookup")
	}
}
