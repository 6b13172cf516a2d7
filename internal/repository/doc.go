// Package repository implements the SurrealDB data access layer.
//
// Each repository wraps a database.Database and maps SurrealQL results to
// model structs. Lookups return nil, nil when a record does not exist.
//
// # Record IDs
//
// IDs travel as "table:key" strings. Queries address records with
// type::thing(table, key) after stripping the table prefix, so an ID that
// names a different table never resolves to a record.
//
// # Referential Actions
//
// Cascades live in the schema (migrations/*.surql) as table events:
//
//   - Deleting a restaurant deletes its schedules and products
//   - Deleting a schedule clears product.schedule on referencing products
package repository
