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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a controllable Clock, grounded on the teacher's own
// timeutil.SimulatedClock pattern (clock/simulated_clock.go): tests
// advance it explicitly instead of sleeping.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeBackend is an in-memory stand-in for RemoteBackend, letting tests
// drive populate()/Sync() deterministically without a real Drive account.
type fakeBackend struct {
	root    string
	objects map[string]*RemoteObject
	order   []string // insertion order of objects, so listings are deterministic
	changes []*Change
	nextID  int

	writes     map[string][]byte
	failCreate bool
	failMoveTo bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		root:    "root-id",
		objects: make(map[string]*RemoteObject),
		writes:  make(map[string][]byte),
	}
}

func (b *fakeBackend) addObject(o *RemoteObject) {
	if _, ok := b.objects[o.ID]; !ok {
		b.order = append(b.order, o.ID)
	}
	b.objects[o.ID] = o
}

func (b *fakeBackend) RootID(ctx context.Context) (string, error) { return b.root, nil }

func (b *fakeBackend) GetAllFiles(ctx context.Context, trashed bool) ([]*RemoteObject, error) {
	out := make([]*RemoteObject, 0, len(b.objects))
	for _, id := range b.order {
		if o, ok := b.objects[id]; ok && o.Trashed == trashed {
			out = append(out, o)
		}
	}
	return out, nil
}

func (b *fakeBackend) GetAllChanges(ctx context.Context) ([]*Change, error) {
	out := b.changes
	b.changes = nil
	return out, nil
}

func (b *fakeBackend) Create(ctx context.Context, parentID, name string, isDir bool) (*RemoteObject, error) {
	if b.failCreate {
		return nil, assertErr{"create failed"}
	}
	b.nextID++
	o := &RemoteObject{
		ID:      "obj-" + name,
		Name:    name,
		Parents: []string{parentID},
		IsDir:   isDir,
	}
	b.addObject(o)
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
	if b.failMoveTo {
		return assertErr{"move failed"}
	}
	if o, ok := b.objects[id]; ok {
		o.Parents = []string{newParentID}
		o.Name = name
	}
	return nil
}

func (b *fakeBackend) Write(ctx context.Context, id string, offset int64, data []byte) error {
	b.writes[id] = append(b.writes[id][:min64(len(b.writes[id]), int(offset))], data...)
	return nil
}

func (b *fakeBackend) Flush(ctx context.Context, id string) error { return nil }

func (b *fakeBackend) Read(ctx context.Context, id string, offset int64, size int) ([]byte, error) {
	return b.writes[id], nil
}

func min64(a, b int) int {
	if a < b {
		return a
	}
	return b
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }

func newTestManager(t *testing.T, b *fakeBackend) (*Manager, *fakeClock) {
	t.Helper()
	clk := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m, err := New(context.Background(), b, Options{
		SyncInterval:         time.Minute,
		RenameIdenticalFiles: true,
		AddSpecialExtensions: true,
		DirMode:              0755,
		FileMode:             0644,
	}, clk, nil)
	require.NoError(t, err)
	return m, clk
}

func TestPopulate_ReservedInodesExist(t *testing.T) {
	m, _ := newTestManager(t, newFakeBackend())
	for _, inode := range []uint64{RootInode, TrashInode, SharedInode, OrphansInode} {
		assert.True(t, m.Contains(ByInode(inode)))
	}
	assert.NotPanics(t, m.CheckInvariants)
}

func TestPopulate_ParentArrivesAfterChildInListing(t *testing.T) {
	b := newFakeBackend()
	// Child listed before its parent: populate's topological projection
	// must still attach it under the parent, not leave it in Orphans.
	b.addObject(&RemoteObject{ID: "child", Name: "child.txt", Parents: []string{"parent"}})
	b.addObject(&RemoteObject{ID: "parent", Name: "sub", IsDir: true, Parents: []string{b.root}})

	m, _ := newTestManager(t, b)

	children := m.GetChildren(ByRemoteID("parent"))
	require.Len(t, children, 1)
	assert.Equal(t, "child.txt", children[0].Name)

	// Orphans should be empty since both objects resolved.
	assert.Empty(t, m.GetChildren(ByInode(OrphansInode)))
}

func TestPopulate_UnknownParentFallsBackToOrphans(t *testing.T) {
	b := newFakeBackend()
	b.addObject(&RemoteObject{ID: "lost", Name: "lost.txt", Parents: []string{"does-not-exist"}})

	m, _ := newTestManager(t, b)

	children := m.GetChildren(ByInode(OrphansInode))
	require.Len(t, children, 1)
	assert.Equal(t, "lost.txt", children[0].Name)
}

func TestPopulate_SpecialExtensionAppended(t *testing.T) {
	b := newFakeBackend()
	b.addObject(&RemoteObject{
		ID:       "doc",
		Name:     "Notes",
		Parents:  []string{b.root},
		MimeType: "application/vnd.google-apps.document",
	})
	m, _ := newTestManager(t, b)
	f, err := m.GetFile(ByRemoteID("doc"))
	require.NoError(t, err)
	assert.Equal(t, "Notes#.odt", f.Name)
}

func TestDuplicateSuffix_AssignedOnCollisionAndClearedOnResolution(t *testing.T) {
	m, _ := newTestManager(t, newFakeBackend())

	a, err := m.CreateFile(context.Background(), &File{Name: "a.txt", Kind: KindRegularFile}, ByInode(RootInode))
	require.NoError(t, err)
	assert.Equal(t, 0, a.DupSuffix)

	b, err := m.CreateFile(context.Background(), &File{Name: "a.txt", Kind: KindRegularFile}, ByInode(RootInode))
	require.NoError(t, err)

	aAfter, _ := m.GetFile(ByInode(a.Inode))
	bAfter, _ := m.GetFile(ByInode(b.Inode))
	// Exactly one of the two carries a suffix.
	assert.True(t, (aAfter.DupSuffix == 0) != (bAfter.DupSuffix == 0))
	assert.Equal(t, 2, max(aAfter.DupSuffix, bAfter.DupSuffix))

	c, err := m.CreateFile(context.Background(), &File{Name: "a.txt", Kind: KindRegularFile}, ByInode(RootInode))
	require.NoError(t, err)
	cAfter, _ := m.GetFile(ByInode(c.Inode))
	assert.Equal(t, 3, cAfter.DupSuffix)

	require.NoError(t, m.Delete(context.Background(), ByInode(b.Inode)))
	require.NoError(t, m.Delete(context.Background(), ByInode(c.Inode)))

	aFinal, _ := m.GetFile(ByInode(a.Inode))
	assert.Equal(t, 0, aFinal.DupSuffix)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func TestRename_LocalMoveSurvivesFacadeFailure(t *testing.T) {
	b := newFakeBackend()
	b.addObject(&RemoteObject{ID: "dir", Name: "dir", IsDir: true, Parents: []string{b.root}})
	m, _ := newTestManager(t, b)

	f, err := m.CreateFile(context.Background(), &File{Name: "f.txt", Kind: KindRegularFile}, ByInode(RootInode))
	require.NoError(t, err)

	dirInode, err := m.resolve("test", ByRemoteID("dir"))
	require.NoError(t, err)

	b.failMoveTo = true
	err = m.Rename(context.Background(), ByInode(f.Inode), dirInode, "renamed.txt")
	require.Error(t, err)
	assert.True(t, IsRemote(err))

	moved, err := m.GetFile(ByInode(f.Inode))
	require.NoError(t, err)
	assert.Equal(t, "renamed.txt", moved.Name)

	children := m.GetChildren(ByInode(dirInode))
	require.Len(t, children, 1)
	assert.Equal(t, "renamed.txt", children[0].Name)
}

func TestMoveFileToTrash_ReservedDirectoryRejected(t *testing.T) {
	m, _ := newTestManager(t, newFakeBackend())
	err := m.MoveFileToTrash(context.Background(), ByInode(SharedInode), true)
	require.Error(t, err)
	fe, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, KindTreeConstraint, fe.Kind)
}

func TestFileIsTrashed_ReflectsTrashMove(t *testing.T) {
	m, _ := newTestManager(t, newFakeBackend())
	f, err := m.CreateFile(context.Background(), &File{Name: "f.txt", Kind: KindRegularFile}, ByInode(RootInode))
	require.NoError(t, err)

	trashed, err := m.FileIsTrashed(ByInode(f.Inode))
	require.NoError(t, err)
	assert.False(t, trashed)

	require.NoError(t, m.MoveFileToTrash(context.Background(), ByInode(f.Inode), false))

	trashed, err = m.FileIsTrashed(ByInode(f.Inode))
	require.NoError(t, err)
	assert.True(t, trashed)

	children := m.GetChildren(ByInode(TrashInode))
	require.Len(t, children, 1)
	assert.Equal(t, f.Inode, children[0].Inode)
}

func TestSync_SkippedBeforeInterval(t *testing.T) {
	m, clk := newTestManager(t, newFakeBackend())
	_ = clk
	err := m.Sync(context.Background())
	assert.Equal(t, ErrSyncSkipped, err)
}

func TestSync_AppliesRemovalUpdateAndNewObject(t *testing.T) {
	b := newFakeBackend()
	b.addObject(&RemoteObject{ID: "stays", Name: "stays.txt", Parents: []string{b.root}})
	b.addObject(&RemoteObject{ID: "goes", Name: "goes.txt", Parents: []string{b.root}})
	m, clk := newTestManager(t, b)
	clk.Advance(time.Hour)

	b.changes = []*Change{
		{RemoteID: "goes", Removed: true},
		{RemoteID: "new", Object: &RemoteObject{ID: "new", Name: "new.txt", Parents: []string{b.root}}},
		{RemoteID: "stays", Object: &RemoteObject{ID: "stays", Name: "renamed.txt", Parents: []string{b.root}}},
	}
	require.NoError(t, m.Sync(context.Background()))

	assert.False(t, m.Contains(ByRemoteID("goes")))

	newFile, err := m.GetFile(ByRemoteID("new"))
	require.NoError(t, err)
	assert.Equal(t, "new.txt", newFile.Name)

	staysFile, err := m.GetFile(ByRemoteID("stays"))
	require.NoError(t, err)
	assert.Equal(t, "renamed.txt", staysFile.Name)

	m.CheckInvariants()
}

func TestSync_TrashedChangeMovesIntoTrash(t *testing.T) {
	b := newFakeBackend()
	b.addObject(&RemoteObject{ID: "f", Name: "f.txt", Parents: []string{b.root}})
	m, clk := newTestManager(t, b)
	clk.Advance(time.Hour)

	b.changes = []*Change{
		{RemoteID: "f", Object: &RemoteObject{ID: "f", Name: "f.txt", Parents: []string{b.root}, Trashed: true}},
	}
	require.NoError(t, m.Sync(context.Background()))

	trashed, err := m.FileIsTrashed(ByRemoteID("f"))
	require.NoError(t, err)
	assert.True(t, trashed)

	children := m.GetChildren(ByInode(TrashInode))
	require.Len(t, children, 1)
	assert.Equal(t, "f.txt", children[0].Name)
}

func TestWrite_UnresolvableRefIsAnError(t *testing.T) {
	m, _ := newTestManager(t, newFakeBackend())
	err := m.Write(context.Background(), ByInode(9999), 0, []byte("x"))
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestGetChildren_NonDirectoryYieldsNoErrorNoChildren(t *testing.T) {
	m, _ := newTestManager(t, newFakeBackend())
	f, err := m.CreateFile(context.Background(), &File{Name: "f.txt", Kind: KindRegularFile}, ByInode(RootInode))
	require.NoError(t, err)
	assert.Empty(t, m.GetChildren(ByInode(f.Inode)))
}
