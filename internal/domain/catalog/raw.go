package catalog

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// DecodeValue reads the next JSON value from d into plain Go values:
// map[string]any, []any, string, bool, nil and json.Number for numbers, so
// that prices keep their exact decimal text.
func DecodeValue(d *jx.Decoder) (any, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return nil, err
		}
		return json.Number(string(n)), nil
	case jx.Bool:
		return d.Bool()
	case jx.Null:
		return nil, d.Null()
	case jx.Array:
		out := []any{}
		err := d.Arr(func(d *jx.Decoder) error {
			v, err := DecodeValue(d)
			if err != nil {
				return err
			}
			out = append(out, v)
			return nil
		})
		return out, err
	case jx.Object:
		out := map[string]any{}
		err := d.Obj(func(d *jx.Decoder, key string) error {
			v, err := DecodeValue(d)
			if err != nil {
				return err
			}
			out[key] = v
			return nil
		})
		return out, err
	default:
		return nil, errors.New("invalid json value")
	}
}

// DecodeRecord decodes a single JSON object. Anything that is not an object
// yields a nil record and an error.
func DecodeRecord(data []byte) (RawRecord, error) {
	v, err := DecodeValue(jx.DecodeBytes(data))
	if err != nil {
		return nil, errors.Wrap(err, "decode record")
	}
	rec, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("record is not an object")
	}
	return rec, nil
}
