package cmd

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
)

func TestCheckRun(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		check    Check
		wantErr  bool
		contains []string
		excludes []string
	}{
		{
			name:     "clean",
			input:    "require json\n## t\nx\n#=> 1\n",
			check:    Check{Warnings: true},
			contains: []string{"0 errors, 0 warnings in 1 file\n"},
		},
		{
			name:    "lexical error",
			input:   "require foo\nx = 'abc\n",
			check:   Check{Warnings: true},
			wantErr: true,
			contains: []string{
				":2:5: lexical error: unterminated string literal\n",
				"  2 | x = 'abc\n",
				strings.Repeat(" ", 10) + "^\n",
				"1 error, 0 warnings in 1 file\n",
			},
		},
		{
			name:  "warning",
			input: "## t\n#=abc> 1\n#=> 1\n",
			check: Check{Warnings: true},
			contains: []string{
				": syntax warning: ",
				"0 errors, 1 warning in 1 file\n",
			},
		},
		{
			name:     "warnings disabled",
			input:    "## t\n#=abc> 1\n#=> 1\n",
			check:    Check{Warnings: false},
			contains: []string{"0 errors, 0 warnings in 1 file\n"},
			excludes: []string{"warning:"},
		},
		{
			name:     "quiet",
			input:    "require foo\nx = 'abc\n",
			check:    Check{Quiet: true, Warnings: true},
			wantErr:  true,
			contains: []string{"1 error, 0 warnings in 1 file\n"},
			excludes: []string{"unterminated"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, t.TempDir(), "input.try", tt.input)

			c := tt.check
			c.Color = colorNever
			c.Sources = []string{path}

			var buf bytes.Buffer

			err := c.Run(WithOutput(context.Background(), &buf))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Check.Run() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.wantErr && !errors.Is(err, ErrDiagnostics) {
				t.Errorf("expected ErrDiagnostics, got %v", err)
			}

			out := buf.String()

			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("expected output to contain %q:\n%s", want, out)
				}
			}

			for _, unwanted := range tt.excludes {
				if strings.Contains(out, unwanted) {
					t.Errorf("expected output not to contain %q:\n%s", unwanted, out)
				}
			}
		})
	}
}

func TestCheckRun_MultipleFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.try", "## a\nx\n#=> 1\n")
	b := writeTemp(t, dir, "b.try", "## b\ny\n#=> 2\n")

	var buf bytes.Buffer

	c := Check{Color: colorNever, Warnings: true, Sources: []string{a, b}}
	if err := c.Run(WithOutput(context.Background(), &buf)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := buf.String(); got != "0 errors, 0 warnings in 2 files\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestCheckRun_ManyDiagnostics(t *testing.T) {
	const blocks = 2000

	path := writeTemp(t, t.TempDir(), "many.try",
		strings.Repeat("## t\n#=abc> 1\n#=> 1\n\n", blocks))

	var buf bytes.Buffer

	c := Check{Color: colorNever, Warnings: true, Sources: []string{path}}
	if err := c.Run(WithOutput(context.Background(), &buf)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()

	last := "  " + strconv.Itoa(4*(blocks-1)+2) + " | #=abc> 1\n"
	if !strings.Contains(out, last) {
		t.Errorf("expected output to contain %q", last)
	}

	if want := "0 errors, 2000 warnings in 1 file\n"; !strings.HasSuffix(out, want) {
		t.Errorf("expected summary %q, got %q", want, out[max(len(out)-80, 0):])
	}
}

func TestCheckRun_MissingSource(t *testing.T) {
	c := Check{Color: colorNever, Sources: []string{"/nonexistent/file.try"}}

	err := c.Run(WithOutput(context.Background(), &bytes.Buffer{}))
	if !errors.Is(err, ErrReadSource) {
		t.Errorf("expected ErrReadSource, got %v", err)
	}
}

func TestPlural(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 files"},
		{1, "1 file"},
		{2, "2 files"},
	}

	for _, tt := range tests {
		if got := plural(tt.n, "file"); got != tt.want {
			t.Errorf("plural(%d): expected %q, got %q", tt.n, tt.want, got)
		}
	}
}
