// Package query implements the composable, lazily-executed query layer.
// A Builder records filter, relation, ordering, projection, and paging
// clauses over an entity type and only touches the database when one of its
// execution methods runs. This split is the seam that lets the query-string
// interpretation layer append client-requested clauses onto whatever a
// repository returned, without the repository knowing about that layer.
package query
