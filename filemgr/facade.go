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

package filemgr

import (
	"context"
	"time"
)

// RemoteObject is the subset of a Drive file's metadata the Manager reads
// off the Drive Facade, both during populate() and while applying a
// change. It is the facade's half of the contract; filemgr never imports
// the drive package, matching spec.md's "Drive Facade is a black box to
// the File Manager" framing.
type RemoteObject struct {
	ID                string
	Name              string
	MimeType          string
	Parents           []string
	Trashed           bool
	Shared            bool
	IsDir             bool
	Size              uint64
	ModifiedTime      time.Time
	OriginalExtension string
}

// Change is one entry of a Drive Changes.List page: either a removal (the
// object is gone and nothing else about it matters) or an updated object.
type Change struct {
	RemoteID string
	Removed  bool
	Object   *RemoteObject // nil when Removed, or when the API could not resolve metadata
}

// RemoteBackend is everything the File Manager needs from the Drive
// Facade: spec.md §4.2's root_id/get_all_files/get_all_changes/create/
// delete_permanently/move_to_trash/move_to/write/flush/read operations.
// The concrete implementation lives in package drive; filemgr depends only
// on this interface so the two packages can be developed, and tested,
// independently — the same separation the teacher draws between fs and
// gcsproxy/gcs.Bucket.
type RemoteBackend interface {
	RootID(ctx context.Context) (string, error)
	GetAllFiles(ctx context.Context, trashed bool) ([]*RemoteObject, error)
	GetAllChanges(ctx context.Context) ([]*Change, error)
	Create(ctx context.Context, parentID, name string, isDir bool) (*RemoteObject, error)
	DeletePermanently(ctx context.Context, id string) error
	MoveToTrash(ctx context.Context, id string) error
	MoveTo(ctx context.Context, id, newParentID, name string) error
	Write(ctx context.Context, id string, offset int64, data []byte) error
	Flush(ctx context.Context, id string) error
	Read(ctx context.Context, id string, offset int64, size int) ([]byte, error)
}
