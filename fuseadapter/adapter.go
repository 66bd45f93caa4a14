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

// Package fuseadapter is the FUSE Adapter: it translates fuseops.*Op kernel
// requests into calls against a filemgr.Manager and a drive.Facade,
// delegating all state to the File Manager the way the teacher's
// fs.fileSystem delegates to its inode table. Unlike the teacher, which
// guards each inode with its own lock to allow parallel kernel calls,
// drivefuse's Manager is single-threaded (spec.md §5), so the Adapter takes
// one InvariantMutex around every op, the same shape the jacobsa/fuse memfs
// sample uses for its single in-memory tree.
package fuseadapter

import (
	"context"
	"log/slog"

	"github.com/jacobsa/fuse/fuseutil"
	"github.com/jacobsa/syncutil"

	"github.com/drivefuse/drivefuse/filemgr"
)

// StatFSSource is the subset of the Drive Facade the Adapter needs for
// statfs(2); kept as an interface so tests can supply a fake without a real
// drive.Facade.
type StatFSSource interface {
	StatFS(ctx context.Context) (used, total uint64, err error)
}

// Adapter implements fuse.Server (via fuseutil.NotImplementedFileSystem
// embedding, overridden below) against a filemgr.Manager.
type Adapter struct {
	fuseutil.NotImplementedFileSystem

	mgr       *filemgr.Manager
	statfs    StatFSSource
	log       *slog.Logger
	skipTrash bool

	// mu serializes every op against the Manager, which keeps no locks of
	// its own. See the package doc comment.
	mu syncutil.InvariantMutex

	// dirHandles tracks the listing snapshot for each outstanding OpenDirOp,
	// keyed by the handle minted in OpenDir. Grounded on the teacher's
	// dirHandle type, simplified: the Manager's GetChildren already returns
	// an ordered, consistent snapshot, so there is no continuation token to
	// track, just an offset into a slice captured at OpenDir time.
	dirHandles map[uint64]*dirListing
	nextHandle uint64
}

type dirListing struct {
	entries []*filemgr.File
	parent  uint64
}

// New constructs an Adapter over mgr and statfs. skipTrash mirrors
// cfg.Config.SkipTrash: when true, Unlink/RmDir delete permanently instead
// of moving to Drive's trash. log defaults to slog.Default() when nil.
func New(mgr *filemgr.Manager, statfs StatFSSource, skipTrash bool, log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	a := &Adapter{
		mgr:        mgr,
		statfs:     statfs,
		log:        log,
		skipTrash:  skipTrash,
		dirHandles: make(map[uint64]*dirListing),
	}
	a.mu = syncutil.NewInvariantMutex(a.checkInvariants)
	return a
}

func (a *Adapter) checkInvariants() {
	a.mgr.CheckInvariants()
}
