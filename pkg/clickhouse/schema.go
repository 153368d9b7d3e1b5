package clickhouse

import "fmt"

const (
	TableBars1D = "bars_1d"
	TableBars1W = "bars_1w"
)

// BarSchema returns the idempotent DDL for the bar tables. Rows are replaced
// on (symbol, ts) so re-syncing a range does not duplicate bars.
func BarSchema(database string) []string {
	stmts := []string{fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database)}
	for _, table := range []string{TableBars1D, TableBars1W} {
		stmts = append(stmts, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.%s (
			symbol      LowCardinality(String),
			ts          DateTime64(3, 'UTC'),
			open        Float64,
			high        Float64,
			low         Float64,
			close       Float64,
			volume      Int64,
			ingested_at DateTime DEFAULT now()
		)
		ENGINE = ReplacingMergeTree(ingested_at)
		ORDER BY (symbol, ts)`, database, table))
	}
	return stmts
}
