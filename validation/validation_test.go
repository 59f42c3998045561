package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/apifykit/errors"
)

func TestValidatorRequired(t *testing.T) {
	v := New()
	v.Required("name", "John")
	if v.HasErrors() {
		t.Error("expected no errors for valid input")
	}

	v2 := New()
	v2.Required("name", "")
	if !v2.HasErrors() {
		t.Error("expected error for empty required field")
	}

	v3 := New()
	v3.Required("name", "   ")
	if !v3.HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}
}

func TestIsResourceID(t *testing.T) {
	valid := []string{
		"HG7ML7M8z78YcAPEB",
		"apify~web-scraper",
		"apify/web-scraper",
		"my.user~my_dataset-2",
	}
	for _, id := range valid {
		if !IsResourceID(id) {
			t.Errorf("IsResourceID(%q) = false", id)
		}
	}

	invalid := []string{
		"",
		"../etc",
		"a/b/c",
		"with space",
		"~leading",
		"trailing~",
		"a?b=c",
	}
	for _, id := range invalid {
		if IsResourceID(id) {
			t.Errorf("IsResourceID(%q) = true", id)
		}
	}
}

func TestValidatorResourceID(t *testing.T) {
	v := New()
	v.ResourceID("actor_id", "apify~hello-world")
	if v.HasErrors() {
		t.Errorf("unexpected errors %v", v.Errors())
	}

	v2 := New()
	v2.ResourceID("actor_id", "")
	if !v2.HasErrors() || v2.Errors()[0].Message != "is required" {
		t.Errorf("expected required error, got %v", v2.Errors())
	}

	v3 := New()
	v3.ResourceID("actor_id", "bad id")
	if !v3.HasErrors() {
		t.Error("expected format error")
	}
}

func TestValidatorOneOf(t *testing.T) {
	v := New()
	v.OneOf("format", "csv", []string{"json", "csv"})
	if v.HasErrors() {
		t.Error("expected no error for valid oneOf value")
	}

	v2 := New()
	v2.OneOf("format", "pdf", []string{"json", "csv"})
	if !v2.HasErrors() {
		t.Error("expected error for invalid oneOf value")
	}

	v3 := New()
	v3.OneOf("format", "", []string{"json"})
	if v3.HasErrors() {
		t.Error("expected no error for empty oneOf value")
	}
}

func TestValidatorCustom(t *testing.T) {
	v := New()
	v.Custom(false, "field", "custom error")
	if !v.HasErrors() {
		t.Fatal("expected error for false condition")
	}
	if v.Errors()[0].Message != "custom error" {
		t.Errorf("expected 'custom error', got %q", v.Errors()[0].Message)
	}
}

func TestValidatorValidate(t *testing.T) {
	v := New()
	v.Required("name", "John")
	if v.Validate() != nil {
		t.Error("expected nil for valid input")
	}
	if v.Err() != nil {
		t.Error("Err() should be nil without errors")
	}

	v2 := New()
	v2.Required("name", "")
	v2.Custom(false, "limit", "must be 5 or less")
	appErr := v2.Validate()
	if appErr == nil {
		t.Fatal("expected validation error")
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("code = %s", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "name: is required") || !strings.Contains(appErr.Message, "limit: must be 5 or less") {
		t.Errorf("message = %q", appErr.Message)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 2 {
		t.Errorf("details = %v", appErr.Details)
	}
}

type pollInput struct {
	Multiplier float64 `mapstructure:"multiplier" validate:"gt=1"`
}

type runInput struct {
	ActorID string    `json:"actor_id" validate:"required,apify_id"`
	Memory  int       `json:"memory" validate:"omitempty,min=128"`
	Format  string    `json:"format" validate:"omitempty,oneof=json csv"`
	Poll    pollInput `json:"poll"`
}

func TestStructValidateValid(t *testing.T) {
	err := Validate(runInput{ActorID: "apify~hello-world", Memory: 256, Format: "csv", Poll: pollInput{Multiplier: 2}})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestStructValidateInvalid(t *testing.T) {
	err := Validate(runInput{ActorID: "not valid", Memory: 64, Format: "pdf", Poll: pollInput{Multiplier: 1}})
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{
		"actor_id: must be an Apify ID or username~name",
		"memory: must be at least 128",
		"format: must be one of: json csv",
		"poll.multiplier: must be greater than 1",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}

	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatal("expected AppError")
	}
	if fields := appErr.Details["fields"].([]FieldError); len(fields) != 4 {
		t.Errorf("fields = %v", fields)
	}
}

func TestStructValidateRequired(t *testing.T) {
	err := Validate(runInput{})
	if err == nil || !strings.Contains(err.Error(), "actor_id: is required") {
		t.Errorf("expected required error, got %v", err)
	}
}

