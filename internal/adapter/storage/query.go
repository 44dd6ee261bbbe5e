package storage

import (
	"strings"
	"time"

	"github.com/rl1809/warehouse-inventory/internal/core/domain"
)

const itemColumns = "id, name, category, price, stock, created_at, updated_at"

// likeEscape is the ESCAPE character used in LIKE patterns. A backslash
// would need different quoting in MySQL and SQLite string literals.
const likeEscape = "!"

// statement is a SQL text with its bound arguments. Values never appear in
// the text itself.
type statement struct {
	query string
	args  []any
}

func listStatement(f domain.Filter) statement {
	var (
		conds []string
		args  []any
	)

	if text := strings.TrimSpace(f.Text); text != "" {
		pattern := "%" + escapeLike(text) + "%"
		match := " LIKE LOWER(?) ESCAPE '" + likeEscape + "'"
		conds = append(conds, "(LOWER(name)"+match+" OR LOWER(category)"+match+")")
		args = append(args, pattern, pattern)
	}
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}

	var b strings.Builder
	b.WriteString("SELECT " + itemColumns + " FROM inventory")
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY updated_at DESC, created_at DESC, id DESC")

	return statement{query: b.String(), args: args}
}

func getStatement(id int64) statement {
	return statement{
		query: "SELECT " + itemColumns + " FROM inventory WHERE id = ?",
		args:  []any{id},
	}
}

func insertStatement(item domain.NewItem, now time.Time) statement {
	return statement{
		query: `INSERT INTO inventory (name, category, price, stock, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		args: []any{item.Name, item.Category, item.Price, item.Stock, now, now},
	}
}

// updateStatement returns false when the patch carries no field, in which
// case nothing must be executed.
func updateStatement(id int64, p domain.ItemPatch, now time.Time) (statement, bool) {
	if p.Empty() {
		return statement{}, false
	}

	var (
		sets []string
		args []any
	)
	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *p.Category)
	}
	if p.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, *p.Price)
	}
	if p.Stock != nil {
		sets = append(sets, "stock = ?")
		args = append(args, *p.Stock)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, now, id)

	return statement{
		query: "UPDATE inventory SET " + strings.Join(sets, ", ") + " WHERE id = ?",
		args:  args,
	}, true
}

func deleteStatement(id int64) statement {
	return statement{query: "DELETE FROM inventory WHERE id = ?", args: []any{id}}
}

func lowStockStatement(threshold int) statement {
	return statement{
		query: "SELECT " + itemColumns + " FROM inventory WHERE stock <= ? ORDER BY stock ASC, name ASC, id ASC",
		args:  []any{threshold},
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(s)
}
