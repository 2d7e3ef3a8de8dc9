package errors

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "config error",
			code:    "E120",
			wantMsg: "Invalid statetree.json",
			wantCat: CategoryConfig,
		},
		{
			name:    "script error",
			code:    "E201",
			wantMsg: "Unknown step operation",
			wantCat: CategoryScript,
		},
		{
			name:    "replay error",
			code:    "E220",
			wantMsg: "Invalid filter expression",
			wantCat: CategoryReplay,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "file %q not found", "todo.yaml")
	if err.Message != `file "todo.yaml" not found` {
		t.Errorf("Message = %q, want %q", err.Message, `file "todo.yaml" not found`)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
	if err.Error() != `file "todo.yaml" not found` {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestError_Error(t *testing.T) {
	err := New("E200")
	want := "E200: Invalid script"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func writeScript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todo.yaml")
	content := `name: todo
steps:
  - {op: splice, index: 0, add: [a]}
  - {op: splcie, index: 0}
  - {op: set, index: 0, value: b}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestError_WithLocation(t *testing.T) {
	path := writeScript(t)

	err := New("E201").WithLocation(path, 4, 9)

	if err.Location == nil {
		t.Fatal("Location is nil")
	}
	if err.Location.Line != 4 || err.Location.Column != 9 {
		t.Errorf("Location = %v, want line 4 column 9", err.Location)
	}
	want := []string{
		"steps:",
		"  - {op: splice, index: 0, add: [a]}",
		"  - {op: splcie, index: 0}",
		"  - {op: set, index: 0, value: b}",
	}
	if strings.Join(err.Context, "\n") != strings.Join(want, "\n") {
		t.Errorf("Context = %q, want %q", err.Context, want)
	}
}

func TestError_WithLocationFromError(t *testing.T) {
	path := writeScript(t)

	tests := []struct {
		name     string
		err      error
		wantLine int
		wantCol  int
	}{
		{"yaml position", stderrors.New("[4:9] unknown op\n   4 | - {op: splcie}"), 4, 9},
		{"no position", stderrors.New("unexpected EOF"), 0, 0},
		{"nil error", nil, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New("E200").WithLocationFromError(path, tt.err)
			if tt.wantLine == 0 {
				if err.Location != nil {
					t.Errorf("Location = %v, want nil", err.Location)
				}
				return
			}
			if err.Location == nil {
				t.Fatal("Location is nil")
			}
			if err.Location.Line != tt.wantLine || err.Location.Column != tt.wantCol {
				t.Errorf("Location = %v, want %d:%d", err.Location, tt.wantLine, tt.wantCol)
			}
		})
	}
}

func TestError_Builders(t *testing.T) {
	err := New("E202").
		WithDetail("custom detail").
		WithSuggestion("check the index").
		WithExample("- {op: splice, index: 0}")

	if err.Detail != "custom detail" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Suggestion != "check the index" {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}
	if err.Example != "- {op: splice, index: 0}" {
		t.Errorf("Example = %q", err.Example)
	}
}

func TestError_Wrap(t *testing.T) {
	sentinel := stderrors.New("index out of range")
	outer := New("E202").Wrap(sentinel)

	if outer.Unwrap() != sentinel {
		t.Error("Unwrap() should return wrapped error")
	}
	if !stderrors.Is(outer, sentinel) {
		t.Error("errors.Is should find the wrapped error")
	}

	var target *Error
	if !stderrors.As(outer, &target) || target.Code != "E202" {
		t.Error("errors.As should find *Error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E200") != nil {
		t.Error("FromError(nil, ...) should return nil")
	}

	se := New("E201")
	if FromError(se, "E200") != se {
		t.Error("FromError should return *Error as-is")
	}

	stdErr := stderrors.New("boom")
	result := FromError(stdErr, "E240")
	if result.Wrapped != stdErr || result.Code != "E240" {
		t.Errorf("FromError = %+v, want E240 wrapping boom", result)
	}
}

func TestLocation_String(t *testing.T) {
	tests := []struct {
		name string
		loc  *Location
		want string
	}{
		{"nil location", nil, ""},
		{"with column", &Location{File: "todo.yaml", Line: 10, Column: 5}, "todo.yaml:10:5"},
		{"without column", &Location{File: "todo.yaml", Line: 10}, "todo.yaml:10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	path := writeScript(t)
	err := New("E201").
		WithLocation(path, 4, 9).
		WithSuggestion(`did you mean "splice"?`).
		WithExample("- {op: splice, index: 0, remove: 1}").
		Wrap(stderrors.New("statetree: invalid script: step 1\nsource excerpt"))

	formatted := err.Format()

	for _, want := range []string{
		"ERROR E201: Unknown step operation",
		path + ":4:9",
		"→    4 │   - {op: splcie, index: 0}",
		"│         ^",
		"Cause: statetree: invalid script: step 1\n",
		`Hint: did you mean "splice"?`,
		"Example:",
	} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format() missing %q in:\n%s", want, formatted)
		}
	}
	if strings.Contains(formatted, "source excerpt") {
		t.Error("Format() should only show the first line of the cause")
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("E201").WithLocation("todo.yaml", 10, 5)

	want := "todo.yaml:10:5: E201: Unknown step operation"
	if got := err.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("E201").WithLocation("todo.yaml", 10, 5).Wrap(stderrors.New("boom"))

	var got map[string]any
	if e := json.Unmarshal([]byte(err.FormatJSON()), &got); e != nil {
		t.Fatalf("FormatJSON() is not valid JSON: %v", e)
	}
	if got["code"] != "E201" || got["category"] != "script" || got["cause"] != "boom" {
		t.Errorf("FormatJSON() = %v", got)
	}
	loc, ok := got["location"].(map[string]any)
	if !ok || loc["line"] != float64(10) {
		t.Errorf("location = %v, want line 10", got["location"])
	}
}

func TestGetAllCodes(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 {
		t.Fatal("GetAllCodes() should return codes")
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
	for _, code := range codes {
		tmpl, _ := GetTemplate(code)
		if tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("%s: template missing message or category", code)
		}
	}
}

func TestGetTemplate(t *testing.T) {
	template, ok := GetTemplate("E120")
	if !ok {
		t.Fatal("E120 should exist")
	}
	if template.Message != "Invalid statetree.json" {
		t.Errorf("Message = %q", template.Message)
	}

	if _, ok := GetTemplate("E999"); ok {
		t.Error("E999 should not exist")
	}
}

func TestRegister(t *testing.T) {
	Register("E999", ErrorTemplate{
		Category: CategoryCLI,
		Message:  "Custom test error",
		Detail:   "This is a test error",
	})
	defer delete(registry, "E999")

	err := New("E999")
	if err.Message != "Custom test error" {
		t.Errorf("Message = %q, want %q", err.Message, "Custom test error")
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("short text", 100)
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("wrapText short text: got %v", got)
	}

	got = wrapText("this is a longer text that should be wrapped", 20)
	if len(got) != 3 {
		t.Errorf("wrapText long text: expected 3 lines, got %d: %v", len(got), got)
	}

	if got := wrapText("", 10); len(got) != 0 {
		t.Errorf("wrapText empty: expected empty, got %v", got)
	}
}

func TestColors(t *testing.T) {
	saved := color.NoColor
	defer func() { color.NoColor = saved }()

	EnableColors()
	if !strings.Contains(red("test"), "\x1b[31m") {
		t.Error("red should contain ANSI code when colors enabled")
	}

	DisableColors()
	if strings.Contains(red("test"), "\x1b[") {
		t.Error("red should not contain ANSI code when colors disabled")
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var b strings.Builder
	Fprint(&b, stderrors.New("plain failure"))
	if got := b.String(); got != "\nERROR: plain failure\n\n" {
		t.Errorf("Fprint(plain) = %q", got)
	}

	b.Reset()
	Fprint(&b, New("E140"))
	if !strings.Contains(b.String(), "ERROR E140: Script not found") {
		t.Errorf("Fprint(*Error) = %q", b.String())
	}
}
