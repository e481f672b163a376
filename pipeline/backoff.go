//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of AgentToast.
//
// AgentToast is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// AgentToast is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with AgentToast. If not, see https://www.gnu.org/licenses/.

package pipeline

import (
	"math/rand"
	"time"
)

// BackoffStrategy computes the delay before a retry attempt.
// Attempt numbering starts at 0 for the first retry.
type BackoffStrategy interface {
	Delay(attempt int) time.Duration
}

// ExponentialBackoff doubles the delay on every attempt up to MaxDelay.
type ExponentialBackoff struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func (eb *ExponentialBackoff) Delay(attempt int) time.Duration {
	delay := eb.BaseDelay * time.Duration(1<<uint(attempt))
	if delay > eb.MaxDelay {
		delay = eb.MaxDelay
	}
	return delay
}

// FixedBackoff waits the same delay between every attempt.
type FixedBackoff struct {
	FixedDelay time.Duration
}

func (fb *FixedBackoff) Delay(attempt int) time.Duration {
	return fb.FixedDelay
}

// JitteredBackoff adds randomness to exponential backoff so concurrent
// stages retrying against the same provider do not synchronize.
type JitteredBackoff struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Jitter    float64 // 0.0 to 1.0
}

func (jb *JitteredBackoff) Delay(attempt int) time.Duration {
	delay := jb.BaseDelay * time.Duration(1<<uint(attempt))
	if delay > jb.MaxDelay {
		delay = jb.MaxDelay
	}

	if jb.Jitter > 0 {
		jitterAmount := float64(delay) * jb.Jitter * (rand.Float64() - 0.5)
		delay += time.Duration(jitterAmount)
	}

	return delay
}

// NoBackoff retries immediately. Intended for tests.
type NoBackoff struct{}

func (nb *NoBackoff) Delay(attempt int) time.Duration {
	return 0
}
