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

import "time"

// Kind distinguishes a regular file from a directory. The tree itself
// enforces that only directories may have children.
type Kind int

const (
	KindRegularFile Kind = iota
	KindDirectoryFile
)

func (k Kind) String() string {
	if k == KindDirectoryFile {
		return "directory"
	}
	return "file"
}

// PosixAttrs are the stat(2)-visible attributes the FUSE Adapter reports
// for a File. The Manager keeps these current; it does not compute them
// lazily the way the teacher's inode.Attributes() does against a live GCS
// object, since the Manager, not the kernel, owns the authoritative copy.
type PosixAttrs struct {
	Size  uint64
	Mode  uint32 // low bits are the permission bits; high bits carry os.ModeDir etc.
	Uid   uint32
	Gid   uint32
	Nlink uint32
	Atime time.Time
	Mtime time.Time
	Ctime time.Time
}

// RemoteDescriptor is the subset of a Drive object's metadata the Manager
// needs to keep local state in sync. A File has one only once it (or its
// populate()/sync()-sourced origin) has a remote counterpart; of the four
// reserved directories only the root carries one (the Drive root's id).
type RemoteDescriptor struct {
	ID                string
	MimeType          string
	Parents           []string // first entry is "the" parent, see SPEC_FULL's first-named-parent policy
	Trashed           bool
	Shared            bool
	OriginalExtension string
}

// File is a single node of the in-memory tree: a directory entry plus the
// POSIX attributes and (if any) remote identity attached to it.
type File struct {
	Inode uint64
	Name  string
	Attrs PosixAttrs
	Kind  Kind

	// Remote is nil for the three Drive-less reserved directories
	// (Shared-with-me and Orphans never touch Drive; Trash's children carry
	// a RemoteDescriptor but Trash itself does not).
	Remote *RemoteDescriptor

	// DupSuffix is 0 when the File's Name is unique among its siblings, and
	// otherwise the disambiguation index recomputed by recomputeDuplicates.
	DupSuffix int
}

// DisplayName is the Name a directory listing should show: the bare Name,
// or Name with " n" inserted before any extension when DupSuffix indicates
// a collision ("note.txt" with suffix 2 shows as "note 2.txt"). The
// Manager does not mutate File.Name for this purpose; see duplicates.go.
func (f *File) DisplayName() string {
	if f.DupSuffix == 0 {
		return f.Name
	}
	return dupDisplayName(f.Name, f.DupSuffix)
}

func (f *File) clone() *File {
	cp := *f
	if f.Remote != nil {
		rd := *f.Remote
		rd.Parents = append([]string(nil), f.Remote.Parents...)
		cp.Remote = &rd
	}
	return &cp
}

func (f *File) isDir() bool { return f.Kind == KindDirectoryFile }
