package docstore

// DocumentID addresses the document id in filters and orderings
const DocumentID = "__name__"

// Op is a filter comparison operator
type Op string

const (
	OpEq               Op = "=="
	OpNe               Op = "!="
	OpLt               Op = "<"
	OpLte              Op = "<="
	OpGt               Op = ">"
	OpGte              Op = ">="
	OpIn               Op = "in"
	OpArrayContains    Op = "array-contains"
	OpArrayContainsAny Op = "array-contains-any"
)

// Filter is one where-clause term. A nil Value with OpEq or OpNe matches
// null or missing fields.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Where builds a Filter
func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Direction is a sort direction
type Direction int

const (
	Asc Direction = iota
	Desc
)

// Order is one ordering term
type Order struct {
	Field string
	Dir   Direction
}

// Query describes a filtered, ordered, paginated read. Results are always
// ordered by document id after the explicit orderings.
type Query struct {
	Where   []Filter
	OrderBy []Order
	Limit   int
	// StartAfter holds cursor values, one per OrderBy term followed by the
	// document id. Use After to build it from a snapshot.
	StartAfter []any
	// Select restricts the returned fields. Empty returns all fields.
	Select []string
}

// After returns a copy of q that resumes after doc in q's ordering.
func (q Query) After(doc *Document) Query {
	cursor := make([]any, 0, len(q.OrderBy)+1)
	for _, o := range q.OrderBy {
		cursor = append(cursor, doc.Value(o.Field))
	}
	cursor = append(cursor, doc.ID)
	q.StartAfter = cursor
	return q
}
