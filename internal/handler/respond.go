package handler

import (
	"io"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/form"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

const maxBodySize = 64 << 10

var errBadRequest = errors.New("invalid request body")

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, code int, message string) {
	httpmiddleware.WriteError(w, code, message)
}

func writeValidationError(w http.ResponseWriter, verr *form.ValidationError) {
	writeJSON(w, http.StatusUnprocessableEntity, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(http.StatusUnprocessableEntity)
		e.FieldStart("message")
		e.Str("validation failed")
		e.FieldStart("fields")
		e.ObjStart()
		names := make([]string, 0, len(verr.Fields))
		for name := range verr.Fields {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			e.FieldStart(name)
			e.Str(verr.Fields[name])
		}
		e.ObjEnd()
		e.ObjEnd()
	})
}

// fail maps errors shared by every endpoint. Endpoint-specific sentinels are
// handled by the callers before falling through to here.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidationError(w, verr)
	case errors.Is(err, errBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, cart.ErrInvalidAction):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "item not found")
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// readObject decodes the request body as a single JSON object, calling fn for
// every key. An empty body decodes as an empty object.
func readObject(w http.ResponseWriter, r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return errors.Wrap(errBadRequest, err.Error())
	}
	if len(data) == 0 {
		return nil
	}
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return errors.Wrap(errBadRequest, "expected JSON object")
	}
	if err := d.Obj(fn); err != nil {
		return errors.Wrap(errBadRequest, err.Error())
	}
	return nil
}

// strFields returns a key callback that reads the listed keys as strings and
// skips everything else. Numbers are accepted as their literal text.
func strFields(fields map[string]*string) func(d *jx.Decoder, key string) error {
	return func(d *jx.Decoder, key string) error {
		dst, ok := fields[key]
		if !ok {
			return d.Skip()
		}
		return decodeString(d, dst)
	}
}

func decodeString(d *jx.Decoder, dst *string) error {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		*dst = s
		return err
	case jx.Number:
		n, err := d.Num()
		*dst = n.String()
		return err
	case jx.Null:
		return d.Null()
	default:
		return errors.New("expected string")
	}
}

// decodeQuantity reads an integer quantity given as a number or a numeric
// string.
func decodeQuantity(d *jx.Decoder, dst *int) error {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return err
		}
		if !n.IsInt() {
			return errors.New("quantity must be an integer")
		}
		v, err := n.Int64()
		*dst = int(v)
		return err
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return err
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return errors.New("quantity must be an integer")
		}
		*dst = v
		return nil
	default:
		return errors.New("quantity must be an integer")
	}
}
