// Copyright 2026 The drivefuse Authors
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

// Package clock provides the time source drivefuse threads through the
// File Manager's sync-interval gating, adapted from the teacher's own
// clock package (real_clock.go, simulated_clock.go): trimmed to just Now(),
// since nothing in drivefuse schedules work off a clock.After channel the
// way the teacher's GCS staleness checks do.
package clock

import "time"

// Clock is satisfied by filemgr.Clock; defined again here, rather than
// imported, so this package has no dependency on filemgr.
type Clock interface {
	Now() time.Time
}

// Real is the production Clock, backed by the system clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }
