package nlparse

import (
	"strings"
	"testing"
	"time"
)

func TestSystemPrompt_InjectsDates(t *testing.T) {
	now := time.Date(2024, 6, 15, 9, 30, 0, 0, time.Local)
	prompt := systemPrompt(now)

	for _, want := range []string{"2024-06-15", "2024-06-08", "2024-06-14"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("systemPrompt() missing date %q", want)
		}
	}
}

func TestSystemPrompt_StatesContract(t *testing.T) {
	prompt := systemPrompt(time.Now())

	// The decoder depends on the model following these rules.
	for _, want := range []string{
		"JSON",
		"min_size",
		"modified_after",
		"extensions",
		"10485760", // 10MB in the worked example, binary units
		".py",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("systemPrompt() missing %q", want)
		}
	}
}

func TestSystemPrompt_ExampleDecodes(t *testing.T) {
	// The worked example embedded in the prompt must itself decode,
	// otherwise we are teaching the model a shape we reject.
	now := time.Date(2024, 6, 15, 9, 30, 0, 0, time.Local)
	prompt := systemPrompt(now)

	start := strings.Index(prompt, `{"extensions"`)
	if start < 0 {
		t.Fatal("worked example not found in prompt")
	}
	end := strings.Index(prompt[start:], "}")
	if end < 0 {
		t.Fatal("worked example not terminated")
	}
	example := prompt[start : start+end+1]

	q, err := DecodeResponse(example, now)
	if err != nil {
		t.Fatalf("DecodeResponse(example) error = %v", err)
	}
	if q.MinSize == nil || *q.MinSize != 10485760 {
		t.Errorf("example MinSize = %v, want 10485760", q.MinSize)
	}
	if q.ModifiedAfter == nil {
		t.Error("example ModifiedAfter = nil, want a week ago")
	}
}
