package chunker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestSplit_Empty(t *testing.T) {
	chunks, err := Split("", 800, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for empty text, got %d", len(chunks))
	}
}

func TestSplit_ShorterThanWindow(t *testing.T) {
	chunks, err := Split("hello world", 800, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "hello world" {
		t.Errorf("expected single verbatim chunk, got %q", chunks)
	}
}

func TestSplit_ThousandChars(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 1000; i++ {
		b.WriteByte(byte('a' + i%26))
	}
	text := b.String()

	chunks, err := Split(text, 800, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0] != text[:800] {
		t.Error("first chunk should be the first 800 characters")
	}
	if chunks[1] != text[700:] {
		t.Error("second chunk should start at character 700")
	}
}

func TestSplit_ExactWindow(t *testing.T) {
	text := strings.Repeat("x", 800)

	chunks, err := Split(text, 800, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Errorf("text equal to the window should produce 1 chunk, got %d", len(chunks))
	}
}

func TestSplit_CoverageAndOverlap(t *testing.T) {
	tests := []struct {
		name     string
		length   int
		maxChars int
		overlap  int
	}{
		{"no overlap", 95, 10, 0},
		{"small overlap", 123, 10, 3},
		{"large overlap", 57, 10, 9},
		{"single char windows", 7, 1, 0},
		{"defaults", 2500, 800, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runes := make([]rune, tt.length)
			for i := range runes {
				runes[i] = rune('A' + i%50)
			}
			text := string(runes)

			chunks, err := Split(text, tt.maxChars, tt.overlap)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			// Rebuild the input by dropping each chunk's overlap prefix.
			var rebuilt strings.Builder
			for i, c := range chunks {
				cr := []rune(c)
				if len(cr) > tt.maxChars {
					t.Fatalf("chunk %d has %d chars, max %d", i, len(cr), tt.maxChars)
				}
				if i == 0 {
					rebuilt.WriteString(c)
					continue
				}
				prev := []rune(chunks[i-1])
				if string(prev[len(prev)-tt.overlap:]) != string(cr[:tt.overlap]) {
					t.Fatalf("chunk %d does not overlap the previous chunk by %d chars", i, tt.overlap)
				}
				rebuilt.WriteString(string(cr[tt.overlap:]))
			}

			if rebuilt.String() != text {
				t.Error("chunks do not cover the input exactly")
			}
		})
	}
}

func TestSplit_CountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("文", 10)

	chunks, err := Split(text, 4, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, c := range chunks {
		if n := len([]rune(c)); n > 4 {
			t.Errorf("chunk %d has %d runes", i, n)
		}
	}
	if chunks[0] != "文文文文" {
		t.Errorf("unexpected first chunk %q", chunks[0])
	}
}

func TestSplit_PreservesWhitespace(t *testing.T) {
	text := "  line one\n\n\tline two  "

	chunks, err := Split(text, 100, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chunks[0] != text {
		t.Errorf("whitespace should be preserved, got %q", chunks[0])
	}
}

func TestSplit_InvalidWindow(t *testing.T) {
	tests := []struct {
		name     string
		maxChars int
		overlap  int
	}{
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
		{"zero size", 0, 0},
		{"negative overlap", 10, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split("some text", tt.maxChars, tt.overlap)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.MaxChars() != DefaultMaxChars {
			t.Errorf("expected maxChars %d, got %d", DefaultMaxChars, p.MaxChars())
		}
		if p.Overlap() != DefaultOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultOverlap, p.Overlap())
		}
	})

	t.Run("custom values", func(t *testing.T) {
		p, err := New(WithMaxChars(500), WithOverlap(50))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.MaxChars() != 500 || p.Overlap() != 50 {
			t.Errorf("expected 500/50, got %d/%d", p.MaxChars(), p.Overlap())
		}
	})

	t.Run("overlap not smaller than size is rejected", func(t *testing.T) {
		_, err := New(WithMaxChars(100), WithOverlap(100))
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	p, _ := New()
	if p.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", p.Name())
	}
}

func TestProcessor_Process(t *testing.T) {
	p, err := New(WithMaxChars(10), WithOverlap(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chunks, err := p.Process(context.Background(), strings.Repeat("abcdefghij", 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}

	seen := make(map[string]bool)
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if c.ID == "" || seen[c.ID] {
			t.Errorf("chunk %d has empty or duplicate id %q", i, c.ID)
		}
		seen[c.ID] = true
	}
}

func TestProcessor_Process_EmptyText(t *testing.T) {
	p, _ := New()

	chunks, err := p.Process(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks, got %d", len(chunks))
	}
}

func TestProcessor_Process_CancelledContext(t *testing.T) {
	p, _ := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, "text")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
