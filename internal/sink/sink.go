package sink

import (
	"context"
	"strings"

	"github.com/dgallion1/cvparse/internal/extract"
)

// Sink appends one extracted record to a tabular store.
type Sink interface {
	Append(ctx context.Context, rec extract.Record) error
}

// Columns is the canonical column order of an applicant row.
var Columns = []string{"Name", "Email", "Phone", "Education", "Qualifications", "Projects", "documentUrl"}

// headerAliases maps lowercase header names to canonical lowercase columns.
var headerAliases = map[string]string{
	"cvurl": "documenturl",
}

// Row renders rec in canonical column order. List fields are joined
// with newlines so each entry sits on its own line inside the cell.
func Row(rec extract.Record) []string {
	return []string{
		rec.Name,
		rec.Email,
		rec.Phone,
		strings.Join(rec.Education, "\n"),
		strings.Join(rec.Qualifications, "\n"),
		strings.Join(rec.Projects, "\n"),
		rec.DocumentURL,
	}
}

// RowForHeader places rec's values under the matching header cells.
// Matching is case-insensitive and unknown headers get an empty cell.
// When the header is empty or matches no known column, the canonical
// order is used.
func RowForHeader(rec extract.Record, header []string) []string {
	values := Row(rec)
	byColumn := make(map[string]string, len(Columns))
	for i, c := range Columns {
		byColumn[strings.ToLower(c)] = values[i]
	}

	out := make([]string, len(header))
	matched := false
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if alias, ok := headerAliases[key]; ok {
			key = alias
		}
		if v, ok := byColumn[key]; ok {
			out[i] = v
			matched = true
		}
	}
	if !matched {
		return values
	}
	return out
}
