package sourcing

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"reelsmith/internal/logging"
	"reelsmith/internal/media"
	"reelsmith/internal/services"
	"reelsmith/internal/stock"
)

// downloadAll fetches candidates with bounded parallelism. Results keep the
// candidate order; failed downloads are dropped.
func (s *Sourcer) downloadAll(ctx context.Context, candidates []stock.Candidate, dir, prefix string, kind media.Kind) ([]media.Asset, error) {
	results := make([]*media.Asset, len(candidates))
	sem := make(chan struct{}, s.opts.DownloadWorkers)
	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Go(func() {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			dest := filepath.Join(dir, fmt.Sprintf("%s_%02d%s", prefix, i, extensionFor(candidate)))
			if err := s.provider.Download(ctx, candidate, dest); err != nil {
				if !services.Aborted(err) {
					s.logger.Warn("stock download failed",
						logging.String(logging.FieldEventType, "stock_download_failed"),
						logging.String(logging.FieldErrorHint, "check network access to the stock provider CDN"),
						logging.String(logging.FieldImpact, "fewer clips in background"),
						logging.Int64("stock_id", candidate.ID),
						logging.Error(err),
					)
				}
				return
			}
			results[i] = &media.Asset{
				Kind:     kind,
				Origin:   media.OriginFetched,
				Path:     dest,
				Width:    candidate.Width,
				Height:   candidate.Height,
				Duration: candidate.Duration,
				Source:   stockSource(candidate.ID),
			}
		})
	}
	wg.Wait()

	stage, _ := services.StageFromContext(ctx)
	if err := services.FromContext(ctx, stage); err != nil {
		return nil, err
	}
	assets := make([]media.Asset, 0, len(results))
	for _, asset := range results {
		if asset != nil {
			assets = append(assets, *asset)
		}
	}
	return assets, nil
}

func stockSource(id int64) string {
	return fmt.Sprintf("pexels:%d", id)
}

func extensionFor(candidate stock.Candidate) string {
	if candidate.Type == stock.MediaPhoto {
		if ext := strings.ToLower(filepath.Ext(strings.SplitN(candidate.URL, "?", 2)[0])); ext == ".png" || ext == ".jpeg" {
			return ext
		}
		return ".jpg"
	}
	return ".mp4"
}
