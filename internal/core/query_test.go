// AngelaMos | 2026
// query_test.go

package core

import (
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestBuildWhere(t *testing.T) {
	t.Run("empty filter", func(t *testing.T) {
		clause, args := BuildWhere(nil, 1)
		if clause != "" || args != nil {
			t.Errorf("BuildWhere(nil) = (%q, %v), want empty", clause, args)
		}
	})

	t.Run("keys are sorted", func(t *testing.T) {
		clause, args := BuildWhere(map[string]any{
			"tenant_id": "t1",
			"status":    "active",
		}, 1)

		want := "status = $1 AND tenant_id = $2"
		if clause != want {
			t.Errorf("clause = %q, want %q", clause, want)
		}
		if !reflect.DeepEqual(args, []any{"active", "t1"}) {
			t.Errorf("args = %v, want [active t1]", args)
		}
	})

	t.Run("respects arg offset", func(t *testing.T) {
		clause, _ := BuildWhere(map[string]any{"tenant_id": "t1"}, 3)
		if clause != "tenant_id = $3" {
			t.Errorf("clause = %q, want tenant_id = $3", clause)
		}
	})
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		url  string
		key  string
		def  int
		want int
	}{
		{"/?page=3", "page", 1, 3},
		{"/", "page", 1, 1},
		{"/?page=abc", "page", 1, 1},
		{"/?page=-2", "page", 1, -2},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			if got := QueryInt(r, tt.key, tt.def); got != tt.want {
				t.Errorf("QueryInt = %d, want %d", got, tt.want)
			}
		})
	}
}
