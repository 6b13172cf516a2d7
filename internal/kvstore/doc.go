// Package kvstore is an embedded Badger backend for restaurants, schedules
// and products, used when the server runs with DB_DRIVER=badger. It also
// backs the idempotency response cache for either driver.
//
// Records are JSON values under "table/id" keys. Secondary indexes are empty
// values whose keys encode the relation, so listing a restaurant's schedules
// is a prefix scan. Every multi-key change runs in one Badger transaction,
// which gives the same referential actions as the SurrealDB schema:
// deleting a restaurant removes its schedules and products, and deleting a
// schedule clears the reference on its products.
package kvstore
