package database

import (
	"fmt"
	"log"
)

// Row is one result row keyed by column name
type Row map[string]any

// ReadRows runs a query and returns every row as a Row. Byte slices, which
// the MySQL driver returns for text columns, come back as strings.
func (d *DB) ReadRows(query string, args ...any) ([]Row, error) {
	query = d.Rebind(query)
	log.Printf("Executing SQL: %s %v", query, args)

	rows, err := d.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var result []Row
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return result, nil
}
