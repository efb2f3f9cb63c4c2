package sqlrepo

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/bytedance/sonic"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func nullFloat(v float64, ok bool) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: ok}
}

func floatPtrToNull(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullToFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	out := v.Float64
	return &out
}

func encodeJSON(value any) (string, error) {
	encoded, err := sonic.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func decodeJSON(raw string, out any) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return sonic.Unmarshal([]byte(raw), out)
}
