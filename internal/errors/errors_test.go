package errors

import (
	"bytes"
	stderrors "errors"
	"io"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "hook error",
			code:    "E002",
			wantMsg: "Hook order changed between renders",
			wantCat: CategoryHooks,
		},
		{
			name:    "render error",
			code:    "E003",
			wantMsg: "Component panicked during render",
			wantCat: CategoryRender,
		},
		{
			name:    "commit error",
			code:    "E005",
			wantMsg: "Render target failed during commit",
			wantCat: CategoryCommit,
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

func TestFiberError_Error(t *testing.T) {
	err := New("E001")
	want := "E001: Hook called outside a component render"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err = New("E003").WithComponent("Counter").Wrap(io.EOF)
	want = "E003: Component panicked during render (in Counter): EOF"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &FiberError{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestUnwrap(t *testing.T) {
	err := New("E004").Wrap(io.ErrUnexpectedEOF)
	if !stderrors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("errors.Is should see the wrapped error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E004") != nil {
		t.Error("FromError(nil) should be nil")
	}

	wrapped := FromError(io.EOF, "E004")
	if wrapped.Code != "E004" || wrapped.Wrapped != io.EOF {
		t.Errorf("FromError = %+v", wrapped)
	}

	orig := New("E005")
	if FromError(orig, "E004") != orig {
		t.Error("FromError should return an existing FiberError unchanged")
	}
}

func TestCodeOf(t *testing.T) {
	inner := New("E005")
	outer := stderrors.Join(io.EOF, inner)
	if got := CodeOf(outer); got != "E005" {
		t.Errorf("CodeOf = %q, want E005", got)
	}
	if got := CodeOf(io.EOF); got != "" {
		t.Errorf("CodeOf(io.EOF) = %q, want empty", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E003").WithComponent("List").WithSuggestion("check the props").Wrap(io.EOF)
	out := err.Format()

	for _, want := range []string{
		"ERROR E003: Component panicked during render",
		"in List",
		"Cause: EOF",
		"Hint: check the props",
		"Learn more: https://vango.dev/docs/reconciler/errors/E003",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatCompactAndJSON(t *testing.T) {
	err := New("E002").WithComponent("Form")
	if got := err.FormatCompact(); got != "E002: Hook order changed between renders [Form]" {
		t.Errorf("FormatCompact() = %q", got)
	}

	js := err.FormatJSON()
	if !strings.Contains(js, `"code":"E002"`) || !strings.Contains(js, `"component":"Form"`) {
		t.Errorf("FormatJSON() = %s", js)
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, io.EOF)
	if !strings.Contains(buf.String(), "ERROR: EOF") {
		t.Errorf("Fprint(plain) = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six seven", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q exceeds width", l)
		}
	}
	if len(wrapText("", 10)) != 0 {
		t.Error("empty text should produce no lines")
	}
}

func TestGetAllCodesSorted(t *testing.T) {
	codes := GetAllCodes()
	for i := 1; i < len(codes); i++ {
		if codes[i-1] > codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
	if _, ok := GetTemplate("E007"); !ok {
		t.Error("E007 should be registered")
	}
}
