package store

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/pagination"
)

// Repository is typed CRUD access to one entity table.
type Repository[T any] struct {
	db *gorm.DB
}

// NewRepository returns a repository for T backed by db.
func NewRepository[T any](db *gorm.DB) *Repository[T] {
	return &Repository[T]{db: db}
}

// WithTx returns a repository bound to an open database transaction.
func (r *Repository[T]) WithTx(tx *gorm.DB) *Repository[T] {
	return &Repository[T]{db: tx}
}

// DB exposes the session for queries the repository does not cover.
func (r *Repository[T]) DB() *gorm.DB {
	return r.db
}

func (r *Repository[T]) query(filter Filter) *gorm.DB {
	return filter.apply(r.db.Model(new(T)))
}

// Create inserts entity; the id is assigned by the model hook.
func (r *Repository[T]) Create(entity *T) error {
	return apperrors.FromStore(r.db.Create(entity).Error, nil)
}

// GetByID returns the entity with the given id, or nil when none exists.
func (r *Repository[T]) GetByID(id string) (*T, error) {
	return r.First(Filter{Eq("id", id)})
}

// First returns the first entity matching filter, or nil when none does.
func (r *Repository[T]) First(filter Filter) (*T, error) {
	var out T
	err := r.query(filter).Limit(1).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.FromStore(err, nil)
	}
	return &out, nil
}

// Update applies fields to the entity with the given id and refreshes its
// updated_at. It reports whether a row matched.
func (r *Repository[T]) Update(id string, fields map[string]interface{}) (bool, error) {
	n, err := r.UpdateWhere(Filter{Eq("id", id)}, fields)
	return n > 0, err
}

// UpdateWhere applies fields to every matching row and returns the count.
func (r *Repository[T]) UpdateWhere(filter Filter, fields map[string]interface{}) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	res := r.query(filter).Updates(fields)
	if res.Error != nil {
		return 0, apperrors.FromStore(res.Error, nil)
	}
	return res.RowsAffected, nil
}

// Delete hard-deletes the entity with the given id and reports whether it existed.
func (r *Repository[T]) Delete(id string) (bool, error) {
	n, err := r.DeleteWhere(Filter{Eq("id", id)})
	return n > 0, err
}

// DeleteWhere hard-deletes every matching row and returns the count.
func (r *Repository[T]) DeleteWhere(filter Filter) (int64, error) {
	if len(filter) == 0 {
		return 0, errors.New("store: refusing unfiltered delete")
	}
	res := filter.apply(r.db).Delete(new(T))
	if res.Error != nil {
		return 0, apperrors.FromStore(res.Error, nil)
	}
	return res.RowsAffected, nil
}

// Find returns every matching entity in the given order.
func (r *Repository[T]) Find(filter Filter, order string) ([]T, error) {
	var out []T
	q := r.query(filter)
	if order != "" {
		q = q.Order(order)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, apperrors.FromStore(err, nil)
	}
	return out, nil
}

// FindN returns at most limit matching entities in the given order.
func (r *Repository[T]) FindN(filter Filter, order string, limit int) ([]T, error) {
	var out []T
	q := r.query(filter)
	if order != "" {
		q = q.Order(order)
	}
	if err := q.Limit(limit).Find(&out).Error; err != nil {
		return nil, apperrors.FromStore(err, nil)
	}
	return out, nil
}

// Count returns the number of matching entities.
func (r *Repository[T]) Count(filter Filter) (int64, error) {
	var n int64
	if err := r.query(filter).Count(&n).Error; err != nil {
		return 0, apperrors.FromStore(err, nil)
	}
	return n, nil
}

// Exists reports whether any entity matches.
func (r *Repository[T]) Exists(filter Filter) (bool, error) {
	n, err := r.Count(filter)
	return n > 0, err
}

// Sum adds up a numeric column over matching rows, zero when none match.
func (r *Repository[T]) Sum(column string, filter Filter) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	row := r.query(filter).Select("SUM(" + column + ")").Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, apperrors.FromStore(err, nil)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return models.RoundMoney(sum.Decimal), nil
}

// ListPage returns one page of matching entities plus the total count.
func (r *Repository[T]) ListPage(filter Filter, page pagination.PageRequest, order string) (*pagination.PageResponse[T], error) {
	page.Defaults()

	total, err := r.Count(filter)
	if err != nil {
		return nil, err
	}

	var items []T
	q := r.query(filter)
	if order != "" {
		q = q.Order(order)
	}
	if err := q.Scopes(pagination.Paginate(page)).Find(&items).Error; err != nil {
		return nil, apperrors.FromStore(err, nil)
	}

	result := pagination.NewPageResponse(items, page.Page, page.PageSize, total)
	return &result, nil
}

// Group is one bucket of a grouped aggregate. Key is nil for rows whose
// grouping column is NULL.
type Group struct {
	Key   *string
	Sum   decimal.Decimal
	Count int64
	Max   decimal.Decimal
	Min   decimal.Decimal
}

// GroupBy aggregates valueColumn over matching rows bucketed by keyColumn.
func (r *Repository[T]) GroupBy(keyColumn, valueColumn string, filter Filter) ([]Group, error) {
	rows, err := r.query(filter).
		Select(keyColumn + ", SUM(" + valueColumn + "), COUNT(*), MAX(" + valueColumn + "), MIN(" + valueColumn + ")").
		Group(keyColumn).
		Rows()
	if err != nil {
		return nil, apperrors.FromStore(err, nil)
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var (
			key         *string
			sum, hi, lo decimal.NullDecimal
			count       int64
		)
		if err := rows.Scan(&key, &sum, &count, &hi, &lo); err != nil {
			return nil, apperrors.FromStore(err, nil)
		}
		groups = append(groups, Group{
			Key:   key,
			Sum:   models.RoundMoney(sum.Decimal),
			Count: count,
			Max:   models.RoundMoney(hi.Decimal),
			Min:   models.RoundMoney(lo.Decimal),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.FromStore(err, nil)
	}
	return groups, nil
}
