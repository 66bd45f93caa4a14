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

package drive

import "io"

// sliceWindow returns the [offset, offset+size) window of data, clamped to
// data's bounds. Used both by the content cache and by Read's cache-miss
// path to carve out the kernel's requested window from a whole-file
// download.
func sliceWindow(data []byte, offset int64, size int) []byte {
	if offset < 0 || offset >= int64(len(data)) {
		return nil
	}
	end := offset + int64(size)
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return data[offset:end]
}

func readAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(r)
}
