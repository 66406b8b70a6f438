// Package sqlxrepos implements the domain repository contracts on top of
// PostgreSQL. Nested course/enrollment structures are stored as jsonb
// documents; the flat columns carry what queries filter or join on.
package sqlxrepos

import (
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}

// trapNoRowsErr maps psql "no rows" to the given domain sentinel.
func trapNoRowsErr(err, sentinel error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return sentinel
	}
	return errors.Wrap(err, msg)
}

func packJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("null")
	}
	return data
}

func unpackJSON(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
