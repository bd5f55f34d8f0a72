package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// GenerateImages issues one request per prompt concurrently and returns the
// results in prompt order. Any failure fails the whole step; no partial set is returned.
func GenerateImages(ctx context.Context, gen ImageGenerator, prompts []string) ([]Image, error) {
	images := make([]Image, len(prompts))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, prompt := range prompts {
		eg.Go(func() error {
			logger := slog.With("image_index", i+1)
			logger.Debug("starting image generation")

			start := time.Now()
			img, err := gen.GenerateImage(egCtx, prompt)
			if err != nil {
				return fmt.Errorf("image %d: %w", i+1, err)
			}
			logger.Debug("image generation completed", "duration", time.Since(start).Round(time.Millisecond))
			images[i] = img
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, &RequestError{Op: opGenerateImage, Err: err}
	}
	return images, nil
}
