// Copyright 2026 The PromRedis Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package clock lets tests take control of time. Production code sees the
// real clock as long as Mock is nil.
package clock

import "time"

// Mock, when non-nil, pins Now to Instant and hands NewTicker a caller-fed
// channel. Set it from tests only.
var Mock *MockClock

type MockClock struct {
	Instant  time.Time
	TickerCh chan time.Time
}

func Now() time.Time {
	if Mock == nil {
		return time.Now()
	}
	return Mock.Instant
}

func NewTicker(d time.Duration) *time.Ticker {
	if Mock == nil || Mock.TickerCh == nil {
		return time.NewTicker(d)
	}
	return &time.Ticker{C: Mock.TickerCh}
}
