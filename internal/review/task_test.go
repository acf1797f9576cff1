package review

import (
	"strings"
	"testing"
)

func TestParseReviewerResponse_Valid(t *testing.T) {
	output := `{
		"summary": "A solid paper with minor issues.",
		"comments": [
			{
				"title": "Missing baseline",
				"content": "No comparison against the obvious baseline.",
				"severity": "warning",
				"page": 3,
				"citations": [
					{"quote": "we compare against two methods", "page": 3}
				]
			}
		]
	}`

	summary, comments, err := parseReviewerResponse(output)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if summary != "A solid paper with minor issues." {
		t.Errorf("Unexpected summary: %q", summary)
	}
	if len(comments) != 1 {
		t.Fatalf("Expected 1 comment, got: %d", len(comments))
	}

	c := comments[0]
	if c.Title != "Missing baseline" || c.Severity != "warning" || c.Page != 3 {
		t.Errorf("Unexpected comment fields: %+v", c)
	}
	if len(c.Citations) != 1 {
		t.Fatalf("Expected 1 citation, got: %d", len(c.Citations))
	}
	if c.Citations[0].Quote != "we compare against two methods" || c.Citations[0].PageHint != 3 {
		t.Errorf("Unexpected citation: %+v", c.Citations[0])
	}
}

func TestParseReviewerResponse_Fenced(t *testing.T) {
	output := "```json\n{\"summary\": \"ok\", \"comments\": []}\n```"

	summary, comments, err := parseReviewerResponse(output)
	if err != nil {
		t.Fatalf("Expected fenced JSON to parse, got: %v", err)
	}
	if summary != "ok" {
		t.Errorf("Expected summary 'ok', got: %q", summary)
	}
	if len(comments) != 0 {
		t.Errorf("Expected no comments, got: %d", len(comments))
	}
}

func TestParseReviewerResponse_Malformed(t *testing.T) {
	if _, _, err := parseReviewerResponse("the paper is quite good overall"); err == nil {
		t.Fatal("Expected error for non-JSON output, got nil")
	}
}

func TestParseReviewerResponse_EmptyQuoteSkipped(t *testing.T) {
	output := `{
		"summary": "s",
		"comments": [
			{
				"title": "t", "content": "c", "severity": "info", "page": 1,
				"citations": [
					{"quote": "   ", "page": 1},
					{"quote": "a real quote", "page": 1}
				]
			}
		]
	}`

	_, comments, err := parseReviewerResponse(output)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(comments[0].Citations) != 1 {
		t.Fatalf("Expected blank quote dropped, got %d citations", len(comments[0].Citations))
	}
	if comments[0].Citations[0].Quote != "a real quote" {
		t.Errorf("Unexpected surviving citation: %+v", comments[0].Citations[0])
	}
}

func TestParseReviewerResponse_Defaults(t *testing.T) {
	output := `{"summary": "s", "comments": [{"content": "no title", "severity": "catastrophic"}]}`

	_, comments, err := parseReviewerResponse(output)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if comments[0].Title != "Comment" {
		t.Errorf("Expected default title, got: %q", comments[0].Title)
	}
	if comments[0].Severity != "info" {
		t.Errorf("Expected unknown severity normalized to info, got: %q", comments[0].Severity)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"  {\"a\": 1}  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		if got := stripFences(tt.input); got != tt.expected {
			t.Errorf("stripFences(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestNormalizeSeverity(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"info", "info"},
		{"WARNING", "warning"},
		{" Error ", "error"},
		{"critical", "info"},
		{"", "info"},
	}

	for _, tt := range tests {
		if got := normalizeSeverity(tt.input); got != tt.expected {
			t.Errorf("normalizeSeverity(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	persona, _ := PersonaByType("editor_overview")
	prompt := buildPrompt(persona, "=== PAGE 1 ===\nSome paper text.")

	if !strings.Contains(prompt, persona.Focus) {
		t.Error("Expected prompt to contain the persona focus")
	}
	if !strings.Contains(prompt, "=== PAGE 1 ===") {
		t.Error("Expected prompt to contain the paper text")
	}
	if !strings.Contains(prompt, "EXACT copy") {
		t.Error("Expected prompt to contain the citation instruction")
	}
}
