package repositorycache

import (
	"context"
	"sort"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// CallOptionRelations names the CallOptions entry holding relations to eager load
// ([]string) when the backing store is a bun repository.
const CallOptionRelations = "relations"

// BunRepository is the subset of a go-repository-bun repository used by BunStore.
// Any repository.Repository[T] satisfies it.
type BunRepository[T any] interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error)
	List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error)
	Create(ctx context.Context, record T, criteria ...repository.InsertCriteria) (T, error)
	Update(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error)
	Delete(ctx context.Context, record T) error
}

// BunStore adapts a bun repository to BackingStore and Writer.
type BunStore[T any] struct {
	repo BunRepository[T]
}

var (
	_ BackingStore[any, string] = (*BunStore[any])(nil)
	_ Writer[any]               = (*BunStore[any])(nil)
)

// NewBunStore wraps repo. Its errors, including not-found, are returned unchanged.
func NewBunStore[T any](repo BunRepository[T]) *BunStore[T] {
	return &BunStore[T]{repo: repo}
}

func (s *BunStore[T]) FindByID(ctx context.Context, id string, filter *Filter, opts CallOptions) (T, error) {
	return s.repo.GetByID(ctx, id, SelectCriteria(filter, opts)...)
}

// Find runs a List query. The total count is dropped.
func (s *BunStore[T]) Find(ctx context.Context, filter *Filter, opts CallOptions) ([]T, error) {
	records, _, err := s.repo.List(ctx, SelectCriteria(filter, opts)...)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *BunStore[T]) Create(ctx context.Context, record T) (T, error) {
	return s.repo.Create(ctx, record)
}

func (s *BunStore[T]) Update(ctx context.Context, record T) (T, error) {
	return s.repo.Update(ctx, record)
}

func (s *BunStore[T]) Delete(ctx context.Context, record T) error {
	return s.repo.Delete(ctx, record)
}

// SelectCriteria translates a Filter and CallOptions into bun select criteria.
// Where conditions are emitted in sorted column order so equal filters build equal queries.
func SelectCriteria(filter *Filter, opts CallOptions) []repository.SelectCriteria {
	var criteria []repository.SelectCriteria

	if filter != nil {
		if len(filter.Fields) > 0 {
			fields := append([]string(nil), filter.Fields...)
			criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Column(fields...)
			})
		}

		columns := make([]string, 0, len(filter.Where))
		for column := range filter.Where {
			columns = append(columns, column)
		}
		sort.Strings(columns)
		for _, column := range columns {
			column, value := column, filter.Where[column]
			criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("? = ?", bun.Ident(column), value)
			})
		}

		if len(filter.Order) > 0 {
			order := append([]string(nil), filter.Order...)
			criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Order(order...)
			})
		}

		if filter.Limit > 0 {
			limit := filter.Limit
			criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Limit(limit)
			})
		}

		if filter.Offset > 0 {
			offset := filter.Offset
			criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Offset(offset)
			})
		}
	}

	if relations, ok := opts[CallOptionRelations].([]string); ok {
		for _, relation := range relations {
			relation := relation
			criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Relation(relation)
			})
		}
	}

	return criteria
}
