// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/driftlens/ai"
)

// embedWithRetry embeds one batch of condition texts. A failed call is
// retried until cfg.MaxRetries attempts have been made, waiting
// cfg.RetryDelay before the first retry and twice as long before each one
// after it. Cancellation ends the wait immediately.
func embedWithRetry(ctx context.Context, embedder ai.Embedder, texts []string, cfg *Config) ([][]float32, error) {
	if cfg.MaxRetries <= 0 {
		return nil, ErrInvalidMaxAttempts
	}

	wait := cfg.RetryDelay
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vectors, err := embedder.EmbedTexts(ctx, texts)
		if err == nil {
			if attempt > 1 {
				slog.Info("embedding batch recovered", "texts", len(texts), "attempt", attempt)
			}
			return vectors, nil
		}
		if attempt == cfg.MaxRetries {
			return nil, fmt.Errorf("embedding %d texts failed after %d attempts: %w", len(texts), attempt, err)
		}
		slog.Warn("embedding batch failed", "texts", len(texts), "attempt", attempt, "retry_in", wait, "err", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		wait *= 2
	}
}
