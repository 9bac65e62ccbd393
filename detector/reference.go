package detector

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cardscan/config"
	"cardscan/database"
	"cardscan/imageprocessor"
	"cardscan/logging"
	"cardscan/signalhandler"
	"cardscan/types"
)

// BuildReferenceTable hashes every loadable image in dir and stores the
// results as reference entries. The entry name is the file name without its
// extension. Existing entries are kept unless forceRewrite is set. Returns
// the number of images processed.
func BuildReferenceTable(ctx context.Context, db *sql.DB, dir string, cfg config.Config, forceRewrite bool) (int, error) {
	loaders := imageprocessor.NewImageLoaderRegistry()

	builder := referenceBuilder{
		db:           db,
		cfg:          cfg,
		loaders:      loaders,
		forceRewrite: forceRewrite,
	}
	if reader, err := imageprocessor.NewMetadataReader(); err != nil {
		logging.LogWarning("Metadata extraction unavailable: %v", err)
	} else {
		builder.metadata = reader
		defer reader.Close()
	}

	d := &Detector{cfg: cfg, loaders: loaders}
	paths, err := d.listImages(dir)
	if err != nil {
		return 0, err
	}
	if len(paths) == 0 {
		return 0, fmt.Errorf("no loadable images in %s", dir)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers())
	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := builder.addReference(path)
			logging.LogImageProcessed(path, err == nil, errMessage(err))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(paths), nil
}

type referenceBuilder struct {
	db           *sql.DB
	cfg          config.Config
	loaders      *imageprocessor.ImageLoaderRegistry
	metadata     *imageprocessor.MetadataReader
	forceRewrite bool

	mu sync.Mutex // serializes metadata reads and store writes
}

func (b *referenceBuilder) addReference(path string) error {
	img, err := b.loaders.LoadImage(path)
	if err != nil {
		return fmt.Errorf("loading %s: %v", path, err)
	}
	defer img.Close()

	hash, err := imageprocessor.ComputePerceptualHash(img, b.cfg.HashSize)
	if err != nil {
		return fmt.Errorf("hashing %s: %v", path, err)
	}

	info := types.ReferenceInfo{
		Name:           referenceName(path),
		PerceptualHash: hash.Hex(),
		HashSize:       b.cfg.HashSize,
		Width:          img.Cols(),
		Height:         img.Rows(),
		Format:         strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		CreatedAt:      time.Now().Format(time.RFC3339),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.metadata != nil {
		if meta, err := b.metadata.Read(path); err == nil {
			info.Width = meta.Width
			info.Height = meta.Height
			if meta.Format != "" {
				info.Format = meta.Format
			}
		}
	}
	return database.StoreReference(b.db, info, b.forceRewrite)
}

// referenceName is the entry name for a reference image file. Query results
// report this name, so it carries no extension.
func referenceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
