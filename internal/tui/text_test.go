package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripANSI_SGR(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain path", "/home/user/notes.md", "/home/user/notes.md"},
		{"bold", "\x1b[1mreport\x1b[0m.pdf", "report.pdf"},
		{"color", "\x1b[31mred\x1b[0m.txt", "red.txt"},
		{"multiple SGR", "\x1b[1;31;42mfancy\x1b[0m", "fancy"},
		{"mixed", "before\x1b[32mgreen\x1b[0mafter", "beforegreenafter"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripANSI(tt.input))
		})
	}
}

func TestStripANSI_OSC(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"OSC with BEL", "\x1b]0;title\x07name.log", "name.log"},
		{"OSC with ST", "\x1b]0;title\x1b\\name.log", "name.log"},
		{"OSC hyperlink", "\x1b]8;;https://example.com\x07link\x1b]8;;\x07", "link"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripANSI(tt.input))
		})
	}
}

func TestStripANSI_Charset(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"charset G0 ASCII", "\x1b(Bdoc.pdf", "doc.pdf"},
		{"charset G1", "\x1b)Bdoc.pdf", "doc.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripANSI(tt.input))
		})
	}
}

func TestValidateUTF8(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"valid ASCII", "/tmp/a.txt", "/tmp/a.txt"},
		{"valid UTF-8", "café.txt", "café.txt"},
		{"latin-1 bytes", "r\xe9sum\xe9.txt", "r�sum�.txt"},
		{"truncated sequence", "caf\xc3", "caf�"},
		{"invalid byte", "hello\x80world", "hello�world"},
		{"empty", "", ""},
		{"multiple invalid", "\x80\x81ok", "��ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateUTF8(tt.input))
		})
	}
}

func TestMiddleTruncate_ASCII(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		maxWidth int
	}{
		{"fits exactly", "abcde", "abcde", 5},
		{"fits with room", "abc", "abc", 10},
		{"needs truncation", "abcdefghij", "abc…hij", 7},
		{"keeps dirs and name", "/home/user/projects/demo/readme.md", "/home/user…readme.md", 20},
		{"max 3", "abcdef", "a…f", 3},
		{"max 2", "abcdef", "ab", 2},
		{"max 1", "abcdef", "a", 1},
		{"max 0", "abcdef", "", 0},
		{"empty string", "", "", 5},
		{"single char", "x", "x", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MiddleTruncate(tt.input, tt.maxWidth))
		})
	}
}

func TestMiddleTruncate_CJK(t *testing.T) {
	// CJK characters are 2 columns wide.
	tests := []struct {
		name     string
		input    string
		want     string
		maxWidth int
	}{
		// "日本語テキスト" is 14 columns. maxWidth=7 leaves 3 columns
		// for the head and 3 for the tail; each side fits one CJK rune.
		{"CJK truncation", "日本語テキスト", "日…ト", 7},
		{"CJK path keeps extension", "資料/月次報告.xlsx", "資料/….xlsx", 12},
		{"CJK fits", "日本", "日本", 4},
		{"CJK with room", "日本", "日本", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MiddleTruncate(tt.input, tt.maxWidth))
		})
	}
}
