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

// RefKind identifies which of the four address forms a Ref carries. The
// Manager accepts all four uniformly at its public boundary so the FUSE
// Adapter, the sync loop, and tests can each address Files the natural way
// for their caller (kernel inode numbers, Drive remote ids, arena handles,
// or a (parent, name) pair from a lookup).
type RefKind int

const (
	RefByInode RefKind = iota
	RefByRemoteID
	RefByHandle
	RefByParentName
)

// Ref is a tagged union over the four ways a File can be addressed.
// Construct one with ByInode, ByRemoteID, or ByParentName (or, inside this
// package, byHandle).
type Ref struct {
	kind     RefKind
	inode    uint64
	remoteID string
	handle   handle
	parent   uint64
	name     string
}

// ByInode addresses a File by its kernel-visible inode number.
func ByInode(inode uint64) Ref { return Ref{kind: RefByInode, inode: inode} }

// ByRemoteID addresses a File by its Drive object id.
func ByRemoteID(id string) Ref { return Ref{kind: RefByRemoteID, remoteID: id} }

// ByParentName addresses a File by the (parent directory inode, entry name)
// pair a kernel LookUpInode carries.
func ByParentName(parent uint64, name string) Ref {
	return Ref{kind: RefByParentName, parent: parent, name: name}
}

// byHandle addresses a File by its arena handle. Unexported: handles are an
// implementation detail of the tree, not a stable address callers outside
// this package should hold onto across calls.
func byHandle(h handle) Ref { return Ref{kind: RefByHandle, handle: h} }
