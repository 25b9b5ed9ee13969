package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/estatemap/internal/adapters/postgres"
	"github.com/samirrijal/estatemap/internal/adapters/valkey"
	"github.com/samirrijal/estatemap/internal/core/domain"
	"github.com/samirrijal/estatemap/internal/core/usecases"
	"github.com/samirrijal/estatemap/internal/pkg/config"
	"github.com/samirrijal/estatemap/internal/pkg/logging"
	"github.com/samirrijal/estatemap/internal/pkg/metrics"
)

const batchSize = 500

func main() {
	cfg, err := config.Load("estatemap-regionloader")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(logging.FromEnv("estatemap-regionloader", "text"))

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	manifestPath := "regions.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		log.Fatalf("parse manifest: %v", err)
	}

	slog.Info("region import", "files", len(manifest.Files), "source", manifest.Source)

	// Optional CLI arg: comma-separated file names
	only := map[string]bool{}
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			only[strings.TrimSpace(s)] = true
		}
	}

	repo := postgres.NewRegionRepo(db)
	client := &fasthttp.Client{ReadTimeout: 120 * time.Second, MaxResponseBodySize: 256 << 20}

	var (
		mu     sync.Mutex
		cities []string
	)

	// Cities first so neighborhoods can reference them.
	for _, kind := range []domain.RegionKind{domain.RegionCity, domain.RegionNeighborhood} {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for _, entry := range manifest.Files {
			if entry.Kind != kind || (len(only) > 0 && !only[entry.Name]) {
				continue
			}
			g.Go(func() error {
				ids, err := importFile(gctx, repo, client, entry)
				if err != nil {
					return fmt.Errorf("%s: %w", entry.Name, err)
				}
				if kind == domain.RegionCity {
					mu.Lock()
					cities = append(cities, ids...)
					mu.Unlock()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			log.Fatalf("import %s regions: %v", kind, err)
		}
	}

	forgetViewports(ctx, cfg, repo, cities)
	slog.Info("region import complete", "cities", len(cities))
}

// forgetViewports drops cached viewports the import made stale. Failure is
// not fatal: entries expire within the hour anyway.
func forgetViewports(ctx context.Context, cfg *config.Config, repo *postgres.RegionRepo, cities []string) {
	cache, err := valkey.New(ctx, valkey.Options{
		Addr:     cfg.Valkey.Addr,
		Password: cfg.Valkey.Password,
		DB:       cfg.Valkey.DB,
		Prefix:   cfg.Valkey.Prefix,
	})
	if err != nil {
		slog.Warn("viewport cache not invalidated", "error", err)
		return
	}
	defer cache.Close()

	if err := usecases.NewViewportService(repo, cache).ForgetCities(ctx, cities); err != nil {
		slog.Warn("viewport cache not invalidated", "error", err)
	}
}

type regionWriter interface {
	UpsertBatch(ctx context.Context, regions []domain.Region) error
}

// importFile loads one manifest entry and returns the ids it wrote.
func importFile(ctx context.Context, repo regionWriter, client *fasthttp.Client, entry FileEntry) ([]string, error) {
	if err := entry.validate(); err != nil {
		return nil, err
	}

	data, err := readSource(client, entry)
	if err != nil {
		return nil, err
	}

	regions, skipped, err := parseRegions(data, entry.Kind)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(regions))
	for start := 0; start < len(regions); start += batchSize {
		end := min(start+batchSize, len(regions))
		if err := repo.UpsertBatch(ctx, regions[start:end]); err != nil {
			return nil, err
		}
		for _, r := range regions[start:end] {
			ids = append(ids, r.ID)
		}
	}
	metrics.RegionsLoaded.WithLabelValues(string(entry.Kind)).Add(float64(len(regions)))

	slog.Info("file imported", "name", entry.Name, "kind", entry.Kind, "regions", len(regions), "skipped", skipped)
	return ids, nil
}

func readSource(client *fasthttp.Client, entry FileEntry) ([]byte, error) {
	if entry.Path != "" {
		return os.ReadFile(entry.Path)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(entry.URL)
	req.Header.SetMethod(fasthttp.MethodGet)
	if err := client.DoRedirects(req, resp, 5); err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("download: HTTP %d", resp.StatusCode())
	}
	return append([]byte(nil), resp.Body()...), nil
}
