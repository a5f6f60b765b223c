package query

import (
	"testing"
	"time"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"500", 500, false},
		{"0", 0, false},
		{"1KB", 1024, false},
		{"1kb", 1024, false},
		{"10 KB", 10240, false},
		{"1.5MB", 1572864, false},
		{"2GB", 2147483648, false},
		{"1TB", 1099511627776, false},
		{"3M", 3145728, false},
		{"2k", 2048, false},
		{"", 0, true},
		{"abc", 0, true},
		{"10XB", 0, true},
		{"-5KB", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseSize(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSize(%q) expected error, got %d", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSize(%q) error = %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tt := range tests {
		result := FormatSize(tt.bytes)
		if result != tt.expected {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, result, tt.expected)
		}
	}
}

func TestParseTime_Relative(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		input string
		want  time.Time
	}{
		{"30m", now.Add(-30 * time.Minute)},
		{"12h", now.Add(-12 * time.Hour)},
		{"7d", now.Add(-7 * 24 * time.Hour)},
		{"2w", now.Add(-14 * 24 * time.Hour)},
		{"1D", now.Add(-24 * time.Hour)},
	}

	for _, tt := range tests {
		got, err := ParseTime(tt.input, now)
		if err != nil {
			t.Errorf("ParseTime(%q) error = %v", tt.input, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseTime(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseTime_Absolute(t *testing.T) {
	now := time.Now()

	got, err := ParseTime("2024-01-15", now)
	if err != nil {
		t.Fatalf("ParseTime() error = %v", err)
	}
	if got.Year() != 2024 || got.Month() != time.January || got.Day() != 15 {
		t.Errorf("ParseTime(\"2024-01-15\") = %v", got)
	}

	got, err = ParseTime("2024-01-15 10:30:00", now)
	if err != nil {
		t.Fatalf("ParseTime() error = %v", err)
	}
	if got.Hour() != 10 || got.Minute() != 30 {
		t.Errorf("ParseTime(\"2024-01-15 10:30:00\") = %v", got)
	}
}

func TestParseTime_Invalid(t *testing.T) {
	now := time.Now()
	for _, input := range []string{"", "yesterday", "5x", "not-a-date"} {
		if _, err := ParseTime(input, now); err == nil {
			t.Errorf("ParseTime(%q) expected error", input)
		}
	}
}
