package cursor

// RowMaterializer builds one fully-populated object per row for
// RowType Model. Initialize runs once, lazily, on the first row and
// receives the raw driver column names (still carrying any "t1."
// prefix) so it can match projected nodes back to their owning model.
// MaterializeRow then runs once per row, receiving the scanned values
// in the same order as the columns passed to Initialize.
//
// cursor does not know about models; package model implements this
// interface to realize the join-aware materializer of spec.md §4.7.
type RowMaterializer interface {
	Initialize(columns []string) error
	MaterializeRow(values []any) (any, error)
}
