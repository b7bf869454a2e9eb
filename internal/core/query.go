// AngelaMos | 2026
// query.go

package core

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// BuildWhere turns a filter map into a deterministic WHERE fragment with
// positional args starting at argOffset. Keys are sorted so generated
// SQL is stable across runs.
func BuildWhere(
	filter map[string]any,
	argOffset int,
) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conditions := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))

	for i, key := range keys {
		conditions = append(
			conditions,
			fmt.Sprintf("%s = $%d", key, argOffset+i),
		)
		args = append(args, filter[key])
	}

	return strings.Join(conditions, " AND "), args
}

// QueryInt reads an integer query parameter, falling back to def when
// the parameter is absent or malformed.
func QueryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}

	return n
}
