package repository

import "fmt"

// Option applies a modification to a Query.
type Option func(Query) Query

// Op is a condition operator.
type Op string

// Condition operators.
const (
	OpEq   Op = "="
	OpIn   Op = "IN"
	OpLike Op = "LIKE"
	OpGte  Op = ">="
	OpLte  Op = "<="
	OpRaw  Op = "RAW"
)

// Query holds conditions, ordering, and pagination for store lookups.
type Query struct {
	conditions []Condition
	orders     []Order
	limit      int
	offset     int
}

// Build creates a Query from a set of options.
func Build(options ...Option) Query {
	q := Query{}
	for _, opt := range options {
		q = opt(q)
	}
	return q
}

// Conditions returns the query conditions.
func (q Query) Conditions() []Condition {
	result := make([]Condition, len(q.conditions))
	copy(result, q.conditions)
	return result
}

// Orders returns the query ordering specifications.
func (q Query) Orders() []Order {
	result := make([]Order, len(q.orders))
	copy(result, q.orders)
	return result
}

// LimitValue returns the limit (0 means no limit).
func (q Query) LimitValue() int { return q.limit }

// OffsetValue returns the offset.
func (q Query) OffsetValue() int { return q.offset }

// Condition represents a single query condition.
type Condition struct {
	field string
	op    Op
	value any
}

// Field returns the condition field name.
func (c Condition) Field() string { return c.field }

// Operator returns the condition operator.
func (c Condition) Operator() Op { return c.op }

// Value returns the condition value.
func (c Condition) Value() any { return c.value }

// String returns a readable representation.
func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.field, c.op, c.value)
}

// Order represents a sort specification.
type Order struct {
	field     string
	ascending bool
}

// Field returns the order field name.
func (o Order) Field() string { return o.field }

// Ascending returns true for ASC, false for DESC.
func (o Order) Ascending() bool { return o.ascending }

// WithCondition adds a field = value equality condition. Domain packages
// use this to define their own typed options.
func WithCondition(field string, value any) Option {
	return withOp(field, OpEq, value)
}

// WithConditionIn adds a field IN (values) condition.
func WithConditionIn(field string, values any) Option {
	return withOp(field, OpIn, values)
}

// WithConditionLike adds a field LIKE value condition. The caller supplies
// any wildcards.
func WithConditionLike(field string, value string) Option {
	return withOp(field, OpLike, value)
}

// WithConditionGte adds a field >= value condition.
func WithConditionGte(field string, value any) Option {
	return withOp(field, OpGte, value)
}

// WithConditionLte adds a field <= value condition.
func WithConditionLte(field string, value any) Option {
	return withOp(field, OpLte, value)
}

// WithWhere adds a raw SQL fragment condition. The fragment may contain a
// single ? placeholder bound to value.
func WithWhere(fragment string, value any) Option {
	return withOp(fragment, OpRaw, value)
}

func withOp(field string, op Op, value any) Option {
	return func(q Query) Query {
		q.conditions = append(q.conditions, Condition{field: field, op: op, value: value})
		return q
	}
}

// WithID filters by the "id" column.
func WithID(id int64) Option {
	return WithCondition("id", id)
}

// WithIDIn filters by the "id" column using IN.
func WithIDIn(ids []int64) Option {
	return WithConditionIn("id", ids)
}

// WithRepositoryID filters by the "repository_id" column.
func WithRepositoryID(id int64) Option {
	return WithCondition("repository_id", id)
}

// WithLimit sets the maximum number of results.
func WithLimit(n int) Option {
	return func(q Query) Query {
		q.limit = n
		return q
	}
}

// WithOffset sets the result offset.
func WithOffset(n int) Option {
	return func(q Query) Query {
		q.offset = n
		return q
	}
}

// WithOrderAsc adds ascending ordering on a field.
func WithOrderAsc(field string) Option {
	return func(q Query) Query {
		q.orders = append(q.orders, Order{field: field, ascending: true})
		return q
	}
}

// WithOrderDesc adds descending ordering on a field.
func WithOrderDesc(field string) Option {
	return func(q Query) Query {
		q.orders = append(q.orders, Order{field: field, ascending: false})
		return q
	}
}
