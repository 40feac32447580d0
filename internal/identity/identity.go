// Package identity converts raw identifiers coming from JSON bodies, path
// parameters, JWT claims and database rows into a canonical ID.
//
// Conversion is strict: there is no parse-or-default. Empty, missing,
// non-numeric and non-positive values are rejected with a
// *apperror.ValidationError naming the field.
package identity

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/apperror"
)

// ID is the canonical identity of every persisted record (BIGINT in PostgreSQL).
type ID int64

// Parse normalises raw into an ID. field is used in the validation error.
func Parse(field string, raw any) (ID, error) {
	switch v := raw.(type) {
	case nil:
		return 0, apperror.Validation(field, "is required")
	case ID:
		return positive(field, int64(v))
	case *ID:
		if v == nil {
			return 0, apperror.Validation(field, "is required")
		}
		return positive(field, int64(*v))
	case string:
		return parseString(field, v)
	case json.Number:
		if _, err := v.Int64(); err != nil {
			if f, ferr := v.Float64(); ferr == nil {
				return Parse(field, f)
			}
		}
		return parseString(field, v.String())
	case Ref:
		if len(v) == 0 {
			return 0, apperror.Validation(field, "is required")
		}
		decoded, ok := v.decode()
		if !ok {
			return 0, apperror.Validation(field, "must be a numeric identifier")
		}
		return Parse(field, decoded)
	case int:
		return positive(field, int64(v))
	case int32:
		return positive(field, int64(v))
	case int64:
		return positive(field, v)
	case uint:
		return fromUint(field, uint64(v))
	case uint32:
		return positive(field, int64(v))
	case uint64:
		return fromUint(field, v)
	case float64:
		if v != math.Trunc(v) {
			return 0, apperror.Validation(field, "must be an integer")
		}
		// float64(math.MaxInt64) rounds up to 2^63, so the upper bound is exclusive.
		if v >= 1<<63 || v < math.MinInt64 {
			return 0, apperror.Validation(field, "is out of range")
		}
		return positive(field, int64(v))
	case *big.Int:
		if v == nil {
			return 0, apperror.Validation(field, "is required")
		}
		if !v.IsInt64() {
			return 0, apperror.Validation(field, "is out of range")
		}
		return positive(field, v.Int64())
	default:
		return 0, apperror.Validation(field, fmt.Sprintf("unsupported identifier type %T", raw))
	}
}

// MustParse is Parse for compile-time constants in tests and seeds.
func MustParse(raw any) ID {
	id, err := Parse("id", raw)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseAll parses every element of raws. The index is appended to field in errors.
func ParseAll(field string, raws []Ref) ([]ID, error) {
	ids := make([]ID, 0, len(raws))
	for i, raw := range raws {
		id, err := Parse(fmt.Sprintf("%s[%d]", field, i), raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseString(field, s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, apperror.Validation(field, "is required")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, apperror.Validation(field, "must be a numeric identifier")
	}
	return positive(field, n)
}

func fromUint(field string, v uint64) (ID, error) {
	if v > math.MaxInt64 {
		return 0, apperror.Validation(field, "is out of range")
	}
	return positive(field, int64(v))
}

func positive(field string, n int64) (ID, error) {
	if n <= 0 {
		return 0, apperror.Validation(field, "must be a positive identifier")
	}
	return ID(n), nil
}

// String returns the decimal form of id.
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// MarshalJSON encodes id as a JSON string so it survives JavaScript clients.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(id.String())), nil
}

// UnmarshalJSON accepts both `"42"` and `42`.
func (id *ID) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return apperror.Validation("id", "must be a numeric identifier")
	}
	parsed, err := Parse("id", raw)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Int64Value implements pgtype.Int64Valuer.
func (id ID) Int64Value() (pgtype.Int8, error) {
	return pgtype.Int8{Int64: int64(id), Valid: true}, nil
}

// ScanInt64 implements pgtype.Int64Scanner.
func (id *ID) ScanInt64(v pgtype.Int8) error {
	if !v.Valid {
		return fmt.Errorf("cannot scan NULL into identity.ID")
	}
	*id = ID(v.Int64)
	return nil
}
