// Package request holds the production-request domain model and its SQLite
// persistence: the stage table, the request record with its nested
// sub-records, the append-only field history, and budget parsing.
package request
