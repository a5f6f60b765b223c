package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// sizeUnits maps size suffixes to byte multipliers. Binary units, so
// "1KB" is 1024 bytes.
var sizeUnits = map[string]int64{
	"B":  1,
	"KB": 1 << 10,
	"K":  1 << 10,
	"MB": 1 << 20,
	"M":  1 << 20,
	"GB": 1 << 30,
	"G":  1 << 30,
	"TB": 1 << 40,
	"T":  1 << 40,
}

// ParseSize converts a human-readable size ("500", "10KB", "1.5 MB")
// into bytes. Bare numbers are bytes.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	numEnd := len(s)
	for i, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != '-' {
			numEnd = i
			break
		}
	}

	numPart := s[:numEnd]
	unitPart := s[numEnd:]

	value, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	if value < 0 {
		return 0, fmt.Errorf("size must not be negative: %q", s)
	}

	multiplier := int64(1)
	if unitPart != "" {
		m, ok := sizeUnits[unitPart]
		if !ok {
			return 0, fmt.Errorf("unknown size unit %q in %q", unitPart, s)
		}
		multiplier = m
	}

	return int64(value * float64(multiplier)), nil
}

// FormatSize renders a byte count in the largest whole binary unit.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// ParseTime converts a user-facing time spec into an absolute time.
// It accepts relative ages ("30m", "12h", "7d", "2w") measured back
// from now, plus common absolute formats ("2024-01-15",
// "2024-01-15 10:30:00", RFC 3339).
func ParseTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}

	if t, ok := parseRelativeAge(s, now); ok {
		return t, nil
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid time %q (use 7d, 12h, or 2024-01-15)", s)
}

// parseRelativeAge handles "Nm", "Nh", "Nd", "Nw" suffixes.
func parseRelativeAge(s string, now time.Time) (time.Time, bool) {
	if len(s) < 2 {
		return time.Time{}, false
	}
	suffix := s[len(s)-1]
	value, err := strconv.ParseFloat(s[:len(s)-1], 64)
	if err != nil || value < 0 {
		return time.Time{}, false
	}

	var d time.Duration
	switch suffix {
	case 'm', 'M':
		d = time.Duration(value * float64(time.Minute))
	case 'h', 'H':
		d = time.Duration(value * float64(time.Hour))
	case 'd', 'D':
		d = time.Duration(value * 24 * float64(time.Hour))
	case 'w', 'W':
		d = time.Duration(value * 7 * 24 * float64(time.Hour))
	default:
		return time.Time{}, false
	}

	return now.Add(-d), true
}
