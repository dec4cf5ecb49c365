package main

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestPrompt(t *testing.T) {
	tests := []struct {
		name    string
		input   io.Reader
		want    []string
		wantErr bool
	}{
		{"answer", strings.NewReader("  YES \n"), []string{"YES"}, false},
		{"last line without newline", strings.NewReader("9876543210"), []string{"9876543210"}, false},
		{"two answers", strings.NewReader("9876543210\nAsha\n"), []string{"9876543210", "Asha"}, false},
		{"closed stdin", strings.NewReader(""), nil, true},
		{"read failure", iotest.ErrReader(errors.New("broken pipe")), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := bufio.NewReader(tt.input)
			var out strings.Builder
			for _, want := range tt.want {
				got, err := prompt(in, &out, "? ")
				if err != nil {
					t.Fatalf("prompt() error = %v", err)
				}
				if got != want {
					t.Errorf("prompt() = %q, want %q", got, want)
				}
			}
			if tt.wantErr {
				if _, err := prompt(in, &out, "? "); err == nil {
					t.Error("prompt() on exhausted input returned no error")
				}
			}
			if !strings.HasPrefix(out.String(), "? ") {
				t.Errorf("question not written: %q", out.String())
			}
		})
	}
}

func TestPromptEOFRejectsYes(t *testing.T) {
	in := bufio.NewReader(strings.NewReader(""))
	answer, err := prompt(in, io.Discard, "confirm: ")
	if err == nil || strings.ToUpper(answer) == "YES" {
		t.Fatalf("empty stdin produced answer %q, err %v", answer, err)
	}
	if !errors.Is(err, io.EOF) {
		t.Errorf("err = %v, want wrapped EOF", err)
	}
}
