package kvstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// splitKey encodes rec and pulls out its key. A missing, null, zero or empty
// key field yields a nil key.
func splitKey(rec any, keyPath string) (map[string]json.RawMessage, any, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, nil, fmt.Errorf("encode record: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, nil, ErrNotObject
	}

	raw, ok := fields[keyPath]
	if !ok {
		return fields, nil, nil
	}
	key, err := decodeKey(raw)
	if err != nil {
		return nil, nil, err
	}
	if key == nil {
		delete(fields, keyPath)
	}
	return fields, key, nil
}

func decodeKey(raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidKey, raw)
		}
		if s == "" {
			return nil, nil
		}
		return s, nil
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKey, raw)
	}
	if n == 0 {
		return nil, nil
	}
	return n, nil
}

// joinKey writes key back into the record's fields and encodes the result.
func joinKey(fields map[string]json.RawMessage, keyPath string, key any) ([]byte, error) {
	raw, err := json.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("encode key: %w", err)
	}
	fields[keyPath] = raw
	return json.Marshal(fields)
}

// normalizeKey accepts the Go types a caller may use as a key.
func normalizeKey(key any) (any, error) {
	switch k := key.(type) {
	case int:
		return int64(k), nil
	case int32:
		return int64(k), nil
	case int64:
		return k, nil
	case uint32:
		return int64(k), nil
	case string:
		return k, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidKey, key)
	}
}

// indexArg converts a lookup value to what json_extract returns for the
// stored field: booleans become 1/0, JSON strings become Go strings and JSON
// numbers become numbers. Types with a custom JSON encoding (time.Time and
// friends) are compared in that encoding.
func indexArg(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	case string, int, int32, int64, float64:
		return val, nil
	case time.Time:
		return val.Format(time.RFC3339Nano), nil
	case json.Marshaler:
		raw, err := val.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encode index value: %w", err)
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("encode index value: %w", err)
		}
		return indexArg(decoded)
	default:
		return nil, fmt.Errorf("unsupported index value type %T", v)
	}
}
