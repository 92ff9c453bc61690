package cms

import (
	"bufio"
	"context"
	"io"
	"os"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/storefront/internal/domain/catalog"
)

// Snapshot is a captured, normalized copy of the catalog.
type Snapshot struct {
	CreatedAt  time.Time
	Items      []catalog.Item
	Categories []catalog.Category
}

// WriteSnapshot writes s to w as gzip-compressed JSON.
func WriteSnapshot(w io.Writer, s Snapshot) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("createdAt")
	e.Str(s.CreatedAt.UTC().Format(time.RFC3339))
	e.FieldStart("catalog")
	e.ArrStart()
	for _, it := range s.Items {
		it.Encode(e)
	}
	e.ArrEnd()
	e.FieldStart("categories")
	e.ArrStart()
	for _, c := range s.Categories {
		c.Encode(e)
	}
	e.ArrEnd()
	e.ObjEnd()

	gz := pgzip.NewWriter(w)
	if _, err := gz.Write(e.Bytes()); err != nil {
		_ = gz.Close()
		return errors.Wrap(err, "write snapshot")
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "close gzip")
	}
	return nil
}

// FileSource serves the catalog from a snapshot file. It implements
// catalog.Provider and is used for development and offline demos.
type FileSource struct {
	createdAt  time.Time
	catalog    []catalog.RawRecord
	categories []catalog.RawRecord
}

var _ catalog.Provider = (*FileSource)(nil)

// OpenFileSource reads the snapshot at path.
func OpenFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	src, err := ReadFileSource(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return src, nil
}

// ReadFileSource decodes a snapshot written by WriteSnapshot.
func ReadFileSource(r io.Reader) (*FileSource, error) {
	gz, err := pgzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "create gzip reader")
	}
	defer func() { _ = gz.Close() }()

	data, err := io.ReadAll(gz)
	if err != nil {
		return nil, errors.Wrap(err, "decompress")
	}

	src := &FileSource{
		catalog:    []catalog.RawRecord{},
		categories: []catalog.RawRecord{},
	}
	if err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "createdAt":
			s, err := d.Str()
			if err != nil {
				return err
			}
			src.createdAt, _ = time.Parse(time.RFC3339, s)
			return nil
		case "catalog":
			return decodeRecords(d, &src.catalog)
		case "categories":
			return decodeRecords(d, &src.categories)
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrap(err, "decode snapshot")
	}
	return src, nil
}

func decodeRecords(d *jx.Decoder, out *[]catalog.RawRecord) error {
	return d.Arr(func(d *jx.Decoder) error {
		v, err := catalog.DecodeValue(d)
		if err != nil {
			return err
		}
		if rec, ok := v.(map[string]any); ok {
			*out = append(*out, rec)
		}
		return nil
	})
}

// CreatedAt reports when the snapshot was captured.
func (s *FileSource) CreatedAt() time.Time { return s.createdAt }

func (s *FileSource) FetchCatalog(context.Context) ([]catalog.RawRecord, error) {
	return slices.Clone(s.catalog), nil
}

func (s *FileSource) FetchCatalogItem(_ context.Context, slug string) (catalog.RawRecord, error) {
	for _, rec := range s.catalog {
		if v, _ := rec["slug"].(string); v == slug {
			return rec, nil
		}
	}
	return nil, nil
}

func (s *FileSource) FetchCategories(context.Context) ([]catalog.RawRecord, error) {
	return slices.Clone(s.categories), nil
}
