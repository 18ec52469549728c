// Package store provides generic, gorm-backed persistence for ledger
// entities: CRUD by id, composable filters and paginated listing.
//
// Column names passed to the filter constructors must be constants from
// calling code; only values are bound as query parameters.
package store

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Scope narrows a query.
type Scope func(*gorm.DB) *gorm.DB

// Filter is a conjunction of scopes. A nil or empty Filter matches everything.
type Filter []Scope

// And returns a filter that also applies the given scopes.
func (f Filter) And(scopes ...Scope) Filter {
	out := make(Filter, 0, len(f)+len(scopes))
	out = append(out, f...)
	for _, s := range scopes {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (f Filter) apply(db *gorm.DB) *gorm.DB {
	for _, scope := range f {
		if scope != nil {
			db = scope(db)
		}
	}
	return db
}

// Where wraps a raw condition. Prefer the typed constructors below.
func Where(query string, args ...interface{}) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

// Eq matches rows whose column equals v.
func Eq(column string, v interface{}) Scope {
	return Where(column+" = ?", v)
}

// In matches rows whose column is one of values.
func In(column string, values interface{}) Scope {
	return Where(column+" IN ?", values)
}

// IsTrue matches rows whose boolean column is true.
func IsTrue(column string) Scope { return Eq(column, true) }

// IsFalse matches rows whose boolean column is false.
func IsFalse(column string) Scope { return Eq(column, false) }

// DateRange matches rows with from <= column <= to. Nil bounds are open.
func DateRange(column string, from, to *time.Time) Scope {
	if from == nil && to == nil {
		return nil
	}
	return func(db *gorm.DB) *gorm.DB {
		if from != nil {
			db = db.Where(column+" >= ?", from.UTC())
		}
		if to != nil {
			db = db.Where(column+" <= ?", to.UTC())
		}
		return db
	}
}

// AmountRange matches rows with lo <= column <= hi. Nil bounds are open.
func AmountRange(column string, lo, hi *decimal.Decimal) Scope {
	if lo == nil && hi == nil {
		return nil
	}
	return func(db *gorm.DB) *gorm.DB {
		if lo != nil {
			db = db.Where(column+" >= ?", *lo)
		}
		if hi != nil {
			db = db.Where(column+" <= ?", *hi)
		}
		return db
	}
}

// Contains is a case-insensitive substring match. An empty term matches everything.
func Contains(column, term string) Scope {
	return AnyContains([]string{column}, term)
}

// AnyContains matches rows where at least one column contains term,
// ignoring case.
func AnyContains(columns []string, term string) Scope {
	if term == "" || len(columns) == 0 {
		return nil
	}
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	clauses := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, c := range columns {
		clauses[i] = "LOWER(" + c + ") LIKE ? ESCAPE '\\'"
		args[i] = pattern
	}
	return Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// AnyOf matches rows where at least one of the columns equals v.
func AnyOf(columns []string, v interface{}) Scope {
	if len(columns) == 0 {
		return nil
	}
	clauses := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, c := range columns {
		clauses[i] = c + " = ?"
		args[i] = v
	}
	return Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// Overlaps matches rows whose [startCol, endCol] window intersects [from, to].
func Overlaps(startCol, endCol string, from, to *time.Time) Scope {
	if from == nil && to == nil {
		return nil
	}
	return func(db *gorm.DB) *gorm.DB {
		if to != nil {
			db = db.Where(startCol+" <= ?", to.UTC())
		}
		if from != nil {
			db = db.Where(endCol+" >= ?", from.UTC())
		}
		return db
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
