package readmodel

import (
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// ExpiringSortFields maps the sort keys accepted by ExpiringLots to columns.
var ExpiringSortFields = map[string]string{
	"expires_at":    "lp.expires_at",
	"quantity":      "lp.quantity",
	"location_code": "loc.code",
	"sku":           "p.sku",
	"lot":           "lp.lot",
}

// SortDirection normalizes dir to ASC or DESC, falling back to def.
func SortDirection(dir, def string) string {
	switch strings.ToUpper(strings.TrimSpace(dir)) {
	case "ASC":
		return "ASC"
	case "DESC":
		return "DESC"
	}
	return def
}

// sortColumn resolves field against a whitelist. Unknown or empty fields
// yield the default column.
func sortColumn(field string, allowed map[string]string, def string) string {
	if col, ok := allowed[strings.TrimSpace(field)]; ok {
		return col
	}
	return def
}

func orderBy(col, dir string) exp.OrderedExpression {
	if dir == "DESC" {
		return goqu.I(col).Desc()
	}
	return goqu.I(col).Asc()
}
