package service

import (
	"reflect"
	"testing"
)

func TestExtractJSONBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		open  byte
		close byte
		want  string
		ok    bool
	}{
		{
			name:  "bare object",
			input: `{"a": 1}`,
			open:  '{', close: '}',
			want: `{"a": 1}`, ok: true,
		},
		{
			name:  "object wrapped in prose",
			input: "Sure, here is the result:\n```json\n{\"a\": {\"b\": 2}}\n```\nLet me know!",
			open:  '{', close: '}',
			want: `{"a": {"b": 2}}`, ok: true,
		},
		{
			name:  "braces inside strings",
			input: `prefix {"text": "a } inside \" quoted"} suffix`,
			open:  '{', close: '}',
			want: `{"text": "a } inside \" quoted"}`, ok: true,
		},
		{
			name:  "array",
			input: `thinking... [1, [2, 3]] done`,
			open:  '[', close: ']',
			want: `[1, [2, 3]]`, ok: true,
		},
		{
			name:  "no block",
			input: "no json here",
			open:  '{', close: '}',
			ok:    false,
		},
		{
			name:  "unterminated block",
			input: `{"a": 1`,
			open:  '{', close: '}',
			ok:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSONBlock(tt.input, tt.open, tt.close)
			if ok != tt.ok {
				t.Fatalf("ok = %t, want %t", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeJSONObject(t *testing.T) {
	var dst struct {
		Status string `json:"status"`
	}
	if !decodeJSONObject(`The answer is {"status": "ALIGNED"} as requested.`, &dst) {
		t.Fatal("decodeJSONObject failed on valid embedded object")
	}
	if dst.Status != "ALIGNED" {
		t.Errorf("status = %q, want ALIGNED", dst.Status)
	}

	if decodeJSONObject("nothing structured", &dst) {
		t.Error("decodeJSONObject succeeded on prose")
	}
}

func TestDecodeJSONArray(t *testing.T) {
	var dst []int
	if !decodeJSONArray("values: [1, 2, 3]", &dst) {
		t.Fatal("decodeJSONArray failed on valid embedded array")
	}
	if !reflect.DeepEqual(dst, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", dst)
	}
}

func TestClampStrings(t *testing.T) {
	got := clampStrings([]string{" a ", "", "b", "c", "d"}, 3)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("clampStrings = %v, want %v", got, want)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "  ", "x", "y"); got != "x" {
		t.Errorf("firstNonEmpty = %q, want x", got)
	}
	if got := firstNonEmpty("", "  "); got != "  " {
		t.Errorf("firstNonEmpty all blank = %q, want last entry", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Errorf("firstNonEmpty() = %q, want empty", got)
	}
}

func TestSample(t *testing.T) {
	if got := sample("abcdef", 3); got != "abc" {
		t.Errorf("sample = %q, want abc", got)
	}
	if got := sample("ab", 10); got != "ab" {
		t.Errorf("sample = %q, want ab", got)
	}
}
