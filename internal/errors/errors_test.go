package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestNewFromRegistry(t *testing.T) {
	err := New("E001")
	if err.Code != "E001" {
		t.Errorf("Code = %q, want E001", err.Code)
	}
	if err.Category != CategoryRuntime {
		t.Errorf("Category = %q, want runtime", err.Category)
	}
	if err.Message == "" || err.Detail == "" || err.DocURL == "" {
		t.Error("registered template fields not populated")
	}
}

func TestNewUnknownCode(t *testing.T) {
	err := New("E999")
	if err.Code != "E999" {
		t.Errorf("Code = %q, want E999", err.Code)
	}
	if err.Message != "Unknown error" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestErrorString(t *testing.T) {
	err := New("E080")
	if got := err.Error(); !strings.HasPrefix(got, "E080: ") {
		t.Errorf("Error() = %q, want E080 prefix", got)
	}

	noCode := Newf(CategoryConfig, "bad value %d", 7)
	if noCode.Error() != "bad value 7" {
		t.Errorf("Error() = %q", noCode.Error())
	}
}

func TestUnwrap(t *testing.T) {
	inner := stderrors.New("io failure")
	err := New("E084").Wrap(inner)

	if !stderrors.Is(err, inner) {
		t.Error("errors.Is should see the wrapped error")
	}
}

func TestBuilders(t *testing.T) {
	err := New("E120").
		WithDetail("more detail").
		WithSuggestion("try this")

	if err.Detail != "more detail" || err.Suggestion != "try this" {
		t.Errorf("builders did not apply: %+v", err)
	}
}

func TestFormatIncludesSections(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E123").
		Wrap(stderrors.New("store \"etcd\" is not supported")).
		WithSuggestion("use one of: memory, sql, redis, s3")
	out := err.Format()

	if !strings.Contains(out, "E123") {
		t.Error("format missing code")
	}
	if !strings.Contains(out, "Cause: store \"etcd\"") {
		t.Error("format missing wrapped cause")
	}
	if !strings.Contains(out, "Hint: use one of") {
		t.Error("format missing suggestion")
	}
	if !strings.Contains(out, "Learn more:") {
		t.Error("format missing doc link")
	}
}

func TestGetTemplate(t *testing.T) {
	if _, ok := GetTemplate("E120"); !ok {
		t.Error("E120 should be registered")
	}
	if _, ok := GetTemplate("E999"); ok {
		t.Error("E999 should not be registered")
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q exceeds width", l)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("empty text should yield nil")
	}
}
