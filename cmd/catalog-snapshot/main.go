package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/cms"
	"github.com/xenking/storefront/internal/domain/catalog"
)

func main() {
	var (
		out string
		cfg cms.Config
	)

	flag.StringVar(&out, "out", "data/catalog.json.gz", "snapshot output path")
	flag.StringVar(&cfg.BaseURL, "cms-url", "https://api.cosmicjs.com/v3", "CMS API base URL")
	flag.StringVar(&cfg.BucketSlug, "bucket", "", "CMS bucket slug (or STOREFRONT_CMS_BUCKET_SLUG env)")
	flag.StringVar(&cfg.ReadKey, "read-key", "", "CMS read key (or STOREFRONT_CMS_READ_KEY env)")
	flag.StringVar(&cfg.ObjectType, "object-type", "rfp-services", "CMS object type listed in the catalog")
	flag.StringVar(&cfg.CategoryType, "category-type", "categories", "CMS object type holding categories")
	flag.DurationVar(&cfg.Timeout, "timeout", 30*time.Second, "CMS request timeout")
	flag.Parse()

	if cfg.BucketSlug == "" {
		cfg.BucketSlug = os.Getenv("STOREFRONT_CMS_BUCKET_SLUG")
	}
	if cfg.ReadKey == "" {
		cfg.ReadKey = os.Getenv("STOREFRONT_CMS_READ_KEY")
	}
	if cfg.BucketSlug == "" {
		slog.Error("bucket is required: set --bucket or STOREFRONT_CMS_BUCKET_SLUG")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, cms.NewClient(cfg, nil), out); err != nil {
		slog.Error("catalog snapshot failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, provider catalog.Provider, out string) error {
	var (
		records    []catalog.RawRecord
		categories []catalog.RawRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := provider.FetchCatalog(gctx)
		if err != nil {
			return errors.Wrap(err, "fetch catalog")
		}
		records = recs
		return nil
	})
	g.Go(func() error {
		recs, err := provider.FetchCategories(gctx)
		if err != nil {
			return errors.Wrap(err, "fetch categories")
		}
		categories = recs
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	snap := cms.Snapshot{
		CreatedAt: time.Now(),
		Items:     catalog.NormalizeAll(records),
	}
	for _, rec := range categories {
		if c := catalog.NormalizeCategory(rec); c != nil {
			snap.Categories = append(snap.Categories, *c)
		}
	}
	slog.Info("fetched catalog",
		slog.Int("records", len(records)),
		slog.Int("items", len(snap.Items)),
		slog.Int("categories", len(snap.Categories)),
	)

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return errors.Wrap(err, "create output dir")
	}
	// Renamed into place once complete.
	tmp := out + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "create %s", tmp)
	}
	w := bufio.NewWriter(f)
	if err := cms.WriteSnapshot(w, snap); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "flush snapshot")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close snapshot")
	}
	if err := os.Rename(tmp, out); err != nil {
		return errors.Wrap(err, "rename snapshot")
	}

	slog.Info("snapshot written", slog.String("path", out))
	return nil
}
