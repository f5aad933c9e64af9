// Copyright 2026 Skillflow Authors
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

package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps an adapter with a token-bucket rate limiter. Complete
// blocks until a token is available or the context is cancelled.
type RateLimited struct {
	inner   Adapter
	limiter *rate.Limiter
}

// NewRateLimited wraps adapter allowing rps requests per second with the
// given burst.
func NewRateLimited(adapter Adapter, rps float64, burst int) *RateLimited {
	return &RateLimited{
		inner:   adapter,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Name returns the wrapped adapter's identifier.
func (r *RateLimited) Name() string { return r.inner.Name() }

// Complete waits for limiter admission, then delegates.
func (r *RateLimited) Complete(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.inner.Complete(ctx, prompt)
}
