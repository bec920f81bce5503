package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

// Fields flattens the dump into logger fields, skipping empty Postgres values.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	pg := map[string]string{
		"pg_code":       d.PGCode,
		"pg_constraint": d.PGConstraint,
		"pg_table":      d.PGTable,
		"pg_column":     d.PGColumn,
		"pg_detail":     d.PGDetail,
		"pg_message":    d.PGMessage,
	}
	for k, v := range pg {
		if v != "" {
			fields[k] = v
		}
	}
	return fields
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		d.PGCode = pgErr.Code
		d.PGConstraint = pgErr.ConstraintName
		d.PGTable = pgErr.TableName
		d.PGColumn = pgErr.ColumnName
		d.PGDetail = pgErr.Detail
		d.PGMessage = pgErr.Message
	}

	return d
}
