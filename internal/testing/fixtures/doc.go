// Package fixtures provides test data factories for SurrealDB-backed tests.
//
// Create a factory with a database connection:
//
//	tdb := testdb.New(t)
//	f := fixtures.New(tdb.DB)
//
//	restaurant := f.CreateRestaurant(t, "user:owner")
//	schedule := f.CreateSchedule(t, restaurant, "09:00", "18:00")
//	product := f.CreateProduct(t, restaurant, schedule)
//
// Names are randomized. Test data is removed when the test database is
// closed.
package fixtures
