// Package postgres contains the PostgreSQL implementations of the store
// interfaces, plus the embedded goose schema migrations. Connections use the
// pgx stdlib driver; constraint violations are mapped to store sentinel
// errors via pgconn error codes.
package postgres
