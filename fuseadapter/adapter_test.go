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

package fuseadapter

import (
	"context"
	"testing"
	"time"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivefuse/drivefuse/filemgr"
)

// fakeBackend is an in-memory stand-in for filemgr.RemoteBackend, the same
// role the filemgr package's own unexported fakeBackend plays for its
// tests, redefined here since that type isn't exported across packages.
type fakeBackend struct {
	root    string
	objects map[string]*filemgr.RemoteObject
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{root: "root-id", objects: make(map[string]*filemgr.RemoteObject)}
}

func (b *fakeBackend) RootID(ctx context.Context) (string, error) { return b.root, nil }

func (b *fakeBackend) GetAllFiles(ctx context.Context, trashed bool) ([]*filemgr.RemoteObject, error) {
	out := make([]*filemgr.RemoteObject, 0, len(b.objects))
	for _, o := range b.objects {
		if o.Trashed == trashed {
			out = append(out, o)
		}
	}
	return out, nil
}

func (b *fakeBackend) GetAllChanges(ctx context.Context) ([]*filemgr.Change, error) { return nil, nil }

func (b *fakeBackend) Create(ctx context.Context, parentID, name string, isDir bool) (*filemgr.RemoteObject, error) {
	o := &filemgr.RemoteObject{ID: "obj-" + name, Name: name, Parents: []string{parentID}, IsDir: isDir}
	b.objects[o.ID] = o
	return o, nil
}

func (b *fakeBackend) DeletePermanently(ctx context.Context, id string) error {
	delete(b.objects, id)
	return nil
}

func (b *fakeBackend) MoveToTrash(ctx context.Context, id string) error {
	if o, ok := b.objects[id]; ok {
		o.Trashed = true
	}
	return nil
}

func (b *fakeBackend) MoveTo(ctx context.Context, id, newParentID, name string) error {
	if o, ok := b.objects[id]; ok {
		o.Parents = []string{newParentID}
		o.Name = name
	}
	return nil
}

func (b *fakeBackend) Write(ctx context.Context, id string, offset int64, data []byte) error { return nil }
func (b *fakeBackend) Flush(ctx context.Context, id string) error                            { return nil }
func (b *fakeBackend) Read(ctx context.Context, id string, offset int64, size int) ([]byte, error) {
	return nil, nil
}

// fakeStatFS is a canned StatFSSource, grounded on the jacobsa/fuse statfs
// sample's SetStatFSResponse pattern.
type fakeStatFS struct {
	used, total uint64
	err         error
}

func (f *fakeStatFS) StatFS(ctx context.Context) (uint64, uint64, error) {
	return f.used, f.total, f.err
}

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

func newTestAdapter(t *testing.T, b *fakeBackend, skipTrash bool) *Adapter {
	t.Helper()
	mgr, err := filemgr.New(context.Background(), b, filemgr.Options{
		SyncInterval: time.Minute,
		DirMode:      0755,
		FileMode:     0644,
		SkipTrash:    skipTrash,
	}, fakeClock{now: time.Now()}, nil)
	require.NoError(t, err)
	return New(mgr, &fakeStatFS{used: 10, total: 100}, skipTrash, nil)
}

func TestLookUpInode_ResolvesChildByName(t *testing.T) {
	b := newFakeBackend()
	a := newTestAdapter(t, b, false)

	created := &fuseops.CreateFileOp{Parent: fuseops.RootInodeID, Name: "hello.txt", Mode: 0644}
	require.NoError(t, a.CreateFile(created))

	op := &fuseops.LookUpInodeOp{Parent: fuseops.RootInodeID, Name: "hello.txt"}
	require.NoError(t, a.LookUpInode(op))
	assert.Equal(t, created.Entry.Child, op.Entry.Child)
}

func TestLookUpInode_MissingNameIsENOENT(t *testing.T) {
	a := newTestAdapter(t, newFakeBackend(), false)
	op := &fuseops.LookUpInodeOp{Parent: fuseops.RootInodeID, Name: "nope"}
	assert.Equal(t, fuse.ENOENT, a.LookUpInode(op))
}

func TestMkDir_ThenReadDirListsChild(t *testing.T) {
	a := newTestAdapter(t, newFakeBackend(), false)

	mk := &fuseops.MkDirOp{Parent: fuseops.RootInodeID, Name: "sub", Mode: 0755}
	require.NoError(t, a.MkDir(mk))

	openOp := &fuseops.OpenDirOp{Inode: fuseops.RootInodeID}
	require.NoError(t, a.OpenDir(openOp))

	readOp := &fuseops.ReadDirOp{Handle: openOp.Handle, Offset: 0, Size: 4096}
	require.NoError(t, a.ReadDir(readOp))
	assert.NotEmpty(t, readOp.Data)

	require.NoError(t, a.ReleaseDirHandle(&fuseops.ReleaseDirHandleOp{Handle: openOp.Handle}))
}

func TestRmDir_NonEmptyDirectoryIsENOTEMPTY(t *testing.T) {
	a := newTestAdapter(t, newFakeBackend(), false)

	mk := &fuseops.MkDirOp{Parent: fuseops.RootInodeID, Name: "sub", Mode: 0755}
	require.NoError(t, a.MkDir(mk))
	require.NoError(t, a.CreateFile(&fuseops.CreateFileOp{Parent: mk.Entry.Child, Name: "f.txt", Mode: 0644}))

	err := a.RmDir(&fuseops.RmDirOp{Parent: fuseops.RootInodeID, Name: "sub"})
	assert.Equal(t, fuse.ENOTEMPTY, err)
}

func TestUnlink_SkipTrashDeletesPermanently(t *testing.T) {
	b := newFakeBackend()
	a := newTestAdapter(t, b, true)

	create := &fuseops.CreateFileOp{Parent: fuseops.RootInodeID, Name: "f.txt", Mode: 0644}
	require.NoError(t, a.CreateFile(create))

	require.NoError(t, a.Unlink(&fuseops.UnlinkOp{Parent: fuseops.RootInodeID, Name: "f.txt"}))

	op := &fuseops.LookUpInodeOp{Parent: fuseops.RootInodeID, Name: "f.txt"}
	assert.Equal(t, fuse.ENOENT, a.LookUpInode(op))
}

func TestUnlink_WithoutSkipTrashMovesToTrash(t *testing.T) {
	a := newTestAdapter(t, newFakeBackend(), false)

	create := &fuseops.CreateFileOp{Parent: fuseops.RootInodeID, Name: "f.txt", Mode: 0644}
	require.NoError(t, a.CreateFile(create))

	require.NoError(t, a.Unlink(&fuseops.UnlinkOp{Parent: fuseops.RootInodeID, Name: "f.txt"}))

	openOp := &fuseops.OpenDirOp{Inode: fuseops.InodeID(filemgr.TrashInode)}
	require.NoError(t, a.OpenDir(openOp))
	readOp := &fuseops.ReadDirOp{Handle: openOp.Handle, Size: 4096}
	require.NoError(t, a.ReadDir(readOp))
	assert.NotEmpty(t, readOp.Data)
}

func TestWriteThenFlush_GrowsFileSize(t *testing.T) {
	a := newTestAdapter(t, newFakeBackend(), false)

	create := &fuseops.CreateFileOp{Parent: fuseops.RootInodeID, Name: "f.txt", Mode: 0644}
	require.NoError(t, a.CreateFile(create))
	inode := create.Entry.Child

	write := &fuseops.WriteFileOp{Inode: inode, Offset: 0, Data: []byte("hello")}
	require.NoError(t, a.WriteFile(write))
	require.NoError(t, a.FlushFile(&fuseops.FlushFileOp{Inode: inode}))

	attr := &fuseops.GetInodeAttributesOp{Inode: inode}
	require.NoError(t, a.GetInodeAttributes(attr))
	assert.Equal(t, uint64(5), attr.Attributes.Size)
}

func TestRename_OverwritesEmptyDestination(t *testing.T) {
	a := newTestAdapter(t, newFakeBackend(), false)

	require.NoError(t, a.CreateFile(&fuseops.CreateFileOp{Parent: fuseops.RootInodeID, Name: "a.txt", Mode: 0644}))
	require.NoError(t, a.CreateFile(&fuseops.CreateFileOp{Parent: fuseops.RootInodeID, Name: "b.txt", Mode: 0644}))

	err := a.Rename(&fuseops.RenameOp{
		OldParent: fuseops.RootInodeID, OldName: "a.txt",
		NewParent: fuseops.RootInodeID, NewName: "b.txt",
	})
	require.NoError(t, err)

	assert.Equal(t, fuse.ENOENT, a.LookUpInode(&fuseops.LookUpInodeOp{Parent: fuseops.RootInodeID, Name: "a.txt"}))
	require.NoError(t, a.LookUpInode(&fuseops.LookUpInodeOp{Parent: fuseops.RootInodeID, Name: "b.txt"}))
}

func TestStatFS_ReportsBlockCountsFromFacadeQuota(t *testing.T) {
	a := newTestAdapter(t, newFakeBackend(), false)
	op := &fuseops.StatFSOp{}
	require.NoError(t, a.StatFS(context.Background(), op))
	assert.EqualValues(t, statfsBlockSize, op.BlockSize)
	assert.EqualValues(t, 100/statfsBlockSize, op.Blocks)
}
