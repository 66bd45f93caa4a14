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

// identifierMaps holds the three bijections the Manager needs to translate
// between the address spaces a kernel, a Drive account, and the tree's own
// arena each use to name the same File: kernel inode number, arena handle,
// and Drive remote id. Grounded on the three parallel maps
// (InodeForFileId/fileIdForInode-equivalent bookkeeping) kept by the
// reference drive_db.go implementation.
type identifierMaps struct {
	byInode       map[uint64]*File
	handleByInode map[uint64]handle
	inodeByRemote map[string]uint64
}

func newIdentifierMaps() *identifierMaps {
	return &identifierMaps{
		byInode:       make(map[uint64]*File),
		handleByInode: make(map[uint64]handle),
		inodeByRemote: make(map[string]uint64),
	}
}

func (m *identifierMaps) insert(h handle, f *File) {
	m.byInode[f.Inode] = f
	m.handleByInode[f.Inode] = h
	if f.Remote != nil {
		m.inodeByRemote[f.Remote.ID] = f.Inode
	}
}

func (m *identifierMaps) remove(inode uint64) {
	f := m.byInode[inode]
	if f != nil && f.Remote != nil {
		delete(m.inodeByRemote, f.Remote.ID)
	}
	delete(m.byInode, inode)
	delete(m.handleByInode, inode)
}

// retarget updates the remote-id index after a File's RemoteDescriptor is
// replaced wholesale (sync.go's "overwrite descriptor" branch), since the
// id itself never changes but we re-key defensively in case it ever does.
func (m *identifierMaps) retarget(f *File, oldRemoteID string) {
	if oldRemoteID != "" {
		delete(m.inodeByRemote, oldRemoteID)
	}
	if f.Remote != nil {
		m.inodeByRemote[f.Remote.ID] = f.Inode
	}
}
