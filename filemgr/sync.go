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
	"fmt"
)

// Sync implements spec.md §4.1's four-step sync protocol: gate on the
// configured interval, advance the interval clock before issuing any
// requests (so a slow or failing poll never causes overlapping polls),
// fetch the change list, and apply each change independently.
//
// A failure from GetAllChanges itself is returned and last_sync is not
// rolled back — the next tick, not a fast retry, is how drivefuse recovers
// from a protocol-level failure, matching the "advance before issuing
// requests" ordering spec.md §9 calls out explicitly.
func (m *Manager) Sync(ctx context.Context) error {
	const op = "sync"
	now := m.clock.Now()
	if now.Sub(m.lastSync) < m.opts.SyncInterval {
		return ErrSyncSkipped
	}
	m.lastSync = now

	changes, err := m.backend.GetAllChanges(ctx)
	if err != nil {
		return newErr(KindRemote, op, err)
	}

	for _, c := range changes {
		if err := m.applyChange(c); err != nil {
			m.log.Warn("sync: dropping change", "remote_id", c.RemoteID, "error", err)
		}
	}
	return nil
}

// applyChange folds one Change into the tree. Per spec.md §4.1's per-change
// rules: a removal deletes the local subtree if one exists (no-op
// otherwise); an update to a File not yet known locally creates it under
// its first named parent (or Orphans if that parent isn't known); an
// update that newly reports Trashed moves the File into Trash; any other
// update overwrites the File's descriptor and reparents it if its parent
// changed.
func (m *Manager) applyChange(c *Change) error {
	if c.Removed {
		if inode, ok := m.ids.inodeByRemote[c.RemoteID]; ok {
			m.removeLocal(inode)
		}
		return nil
	}
	if c.Object == nil {
		return nil
	}

	existingInode, known := m.ids.inodeByRemote[c.RemoteID]
	if !known {
		parentHandle := m.orphansHandle
		if len(c.Object.Parents) > 0 {
			if pInode, ok := m.ids.inodeByRemote[c.Object.Parents[0]]; ok {
				parentHandle = m.ids.handleByInode[pInode]
			}
		}
		f := m.buildFile(c.Object)
		if c.Object.Trashed {
			f.Remote.Trashed = true
			parentHandle = m.trashHandle
		}
		h := m.tree.alloc(parentHandle, f)
		m.ids.insert(h, f)
		m.recomputeDuplicates(parentHandle)
		return nil
	}

	file := m.ids.byInode[existingInode]
	h, ok := m.ids.handleByInode[existingInode]
	if !ok {
		return fmt.Errorf("inode %d indexed by remote id but missing a tree handle", existingInode)
	}
	oldParent := m.tree.node(h).parent
	oldRemoteID := file.Remote.ID

	if c.Object.Trashed {
		file.Remote.Trashed = true
		m.tree.reparent(h, m.trashHandle)
		m.recomputeDuplicates(oldParent)
		m.recomputeDuplicates(m.trashHandle)
		return nil
	}

	rebuilt := m.carryInode(c.Object, file.Inode)
	*file = *rebuilt
	m.ids.retarget(file, oldRemoteID)

	newParentHandle := m.orphansHandle
	if len(c.Object.Parents) > 0 {
		if pInode, ok := m.ids.inodeByRemote[c.Object.Parents[0]]; ok {
			newParentHandle = m.ids.handleByInode[pInode]
		}
	}
	if newParentHandle != oldParent {
		m.tree.reparent(h, newParentHandle)
		m.recomputeDuplicates(oldParent)
	}
	m.recomputeDuplicates(newParentHandle)
	return nil
}

// carryInode builds a File from a remote descriptor the way buildFile
// does, but keeps an already-assigned inode number instead of minting a
// new one — used when a sync update overwrites an existing File in place.
func (m *Manager) carryInode(obj *RemoteObject, inode uint64) *File {
	return m.buildFileWithInode(obj, inode)
}
