package storage

import (
	"reflect"
	"testing"

	"github.com/recallhq/recall/pkg/types"
)

func TestQueryTokens(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"What is my name?", []string{"what", "name?"}},
		{"a be it", nil},
		{"", nil},
		{"  HIKING  ", []string{"hiking"}},
		{"coffee and tea", []string{"coffee", "and", "tea"}},
	}

	for _, tt := range tests {
		got := QueryTokens(tt.query)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("QueryTokens(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestPutMemoryOptionsNormalize(t *testing.T) {
	var opts PutMemoryOptions
	opts.Normalize()
	if opts.Category != types.CategoryGeneral {
		t.Errorf("default category = %q, want general", opts.Category)
	}
	if opts.Importance != types.DefaultImportance {
		t.Errorf("default importance = %v, want %v", opts.Importance, types.DefaultImportance)
	}

	opts = PutMemoryOptions{Importance: 1.7}
	opts.Normalize()
	if opts.Importance != 1.0 {
		t.Errorf("importance not clamped: %v", opts.Importance)
	}

	opts = PutMemoryOptions{Importance: -0.3}
	opts.Normalize()
	if opts.Importance != 0 {
		t.Errorf("negative importance not clamped: %v", opts.Importance)
	}
}
