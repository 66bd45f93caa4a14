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
	"io"
	"log/slog"
	"time"
)

// Reserved inode numbers, fixed for the lifetime of a mount per spec.md §3.
const (
	RootInode    uint64 = 1
	TrashInode   uint64 = 2
	SharedInode  uint64 = 3
	OrphansInode uint64 = 4

	firstFreeInode uint64 = 5
)

// Clock is the time source the Manager uses for sync-interval gating and
// for stamping mtimes on locally-originated mutations. Abstracted so tests
// can control time the way the teacher's timeutil.Clock lets fs tests do.
type Clock interface {
	Now() time.Time
}

// Options carries the subset of spec.md §6's config surface the File
// Manager itself consults (the rest — cache sizes, mount options, OAuth —
// belongs to the Drive Facade and the CLI layer).
type Options struct {
	SyncInterval         time.Duration
	RenameIdenticalFiles bool // corresponds to rename_identical_files
	AddSpecialExtensions bool // corresponds to add_extensions_to_special_files
	SkipTrash            bool // corresponds to skip_trash
	DirMode              uint32
	FileMode             uint32
	Uid                  uint32
	Gid                  uint32
}

// Manager is the File Manager: the single owner of the in-memory directory
// tree for one mounted session. It is not safe for concurrent use from
// multiple goroutines without external synchronization — spec.md §5 makes
// it deliberately single-threaded/cooperative, the one structural point on
// which this departs from the teacher's heavily-locked fs.fileSystem: the
// Manager takes no locks of its own and the FUSE Adapter serializes every
// op behind its single mutex (fuseadapter.Adapter.mu), whereas the teacher's
// fileSystem guards every inode field behind a sync.Mutex. See DESIGN.md.
type Manager struct {
	backend RemoteBackend
	clock   Clock
	opts    Options
	log     *slog.Logger

	tree *tree
	ids  *identifierMaps

	rootHandle, trashHandle, sharedHandle, orphansHandle handle

	nextInode uint64
	nextFH    uint64
	lastSync  time.Time
}

// New constructs a Manager and runs populate() against backend before
// returning, per spec.md §4.1's lifecycle (a Manager is never observed in
// a pre-populate state).
func New(ctx context.Context, backend RemoteBackend, opts Options, clock Clock, log *slog.Logger) (*Manager, error) {
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{
		backend:   backend,
		clock:     clock,
		opts:      opts,
		log:       log,
		tree:      newTree(),
		ids:       newIdentifierMaps(),
		nextInode: firstFreeInode,
		nextFH:    1,
	}
	if err := m.populate(ctx); err != nil {
		return nil, newErr(KindRemote, "populate", err)
	}
	return m, nil
}

func (m *Manager) nextAvailableInode() uint64 {
	i := m.nextInode
	m.nextInode++
	return i
}

// NextAvailableFileHandle mints a kernel file-handle number. File handles
// and inodes are two disjoint monotonic counters, matching spec.md §9's
// "handles are allocated the same way inodes are, from their own space."
func (m *Manager) NextAvailableFileHandle() uint64 {
	fh := m.nextFH
	m.nextFH++
	return fh
}

// --- populate -----------------------------------------------------------

// populate performs the five-step initial load described in spec.md §4.1:
// create the reserved directories, fetch every non-trashed object in one
// bulk listing, project each into the tree under its first named parent
// (topologically, so parent-after-child listing order is harmless),
// fall back to Orphans for anything whose parent chain doesn't terminate
// at a locally known id, then fetch trashed objects straight into Trash.
func (m *Manager) populate(ctx context.Context) error {
	rootID, err := m.backend.RootID(ctx)
	if err != nil {
		return fmt.Errorf("RootID: %w", err)
	}

	root := &File{Inode: RootInode, Name: "/", Kind: KindDirectoryFile, Remote: &RemoteDescriptor{ID: rootID}}
	m.rootHandle = m.tree.alloc(noHandle, root)
	m.ids.insert(m.rootHandle, root)

	trash := &File{Inode: TrashInode, Name: ".Trash", Kind: KindDirectoryFile}
	m.trashHandle = m.tree.alloc(m.rootHandle, trash)
	m.ids.insert(m.trashHandle, trash)

	shared := &File{Inode: SharedInode, Name: ".shared-with-me", Kind: KindDirectoryFile}
	m.sharedHandle = m.tree.alloc(m.rootHandle, shared)
	m.ids.insert(m.sharedHandle, shared)

	orphans := &File{Inode: OrphansInode, Name: ".orphans", Kind: KindDirectoryFile}
	m.orphansHandle = m.tree.alloc(m.rootHandle, orphans)
	m.ids.insert(m.orphansHandle, orphans)

	m.nextInode = firstFreeInode

	objs, err := m.backend.GetAllFiles(ctx, false)
	if err != nil {
		return fmt.Errorf("GetAllFiles: %w", err)
	}

	byRemote := make(map[string]*RemoteObject, len(objs))
	for _, o := range objs {
		byRemote[o.ID] = o
	}
	handleOf := make(map[string]handle, len(objs))
	attached := make(map[string]bool, len(objs))
	visiting := make(map[string]bool, len(objs))

	// resolveParent returns the handle an object with the given remote id
	// should be attached under, recursively attaching that object first if
	// it is itself part of this batch and not yet placed. This is the
	// topological-sort projection spec.md §9's Open Question resolves to:
	// a DFS with memoization visits each object's ancestor chain before
	// the object itself, so listing order never matters.
	var resolveParent func(remoteID string) handle
	resolveParent = func(remoteID string) handle {
		if remoteID == "" {
			return m.orphansHandle
		}
		if remoteID == rootID {
			return m.rootHandle
		}
		if h, ok := handleOf[remoteID]; ok && attached[remoteID] {
			return h
		}
		obj, ok := byRemote[remoteID]
		if !ok {
			return m.orphansHandle
		}
		if visiting[remoteID] {
			// Cycle in the parent chain: not named by the spec, fall back
			// to Orphans rather than recursing forever.
			return m.orphansHandle
		}
		visiting[remoteID] = true
		defer delete(visiting, remoteID)

		parentH := m.orphansHandle
		if len(obj.Parents) > 0 {
			parentH = resolveParent(obj.Parents[0])
		}

		h, exists := handleOf[remoteID]
		if !exists {
			f := m.buildFile(obj)
			h = m.tree.alloc(parentH, f)
			handleOf[remoteID] = h
			m.ids.insert(h, f)
		} else {
			m.tree.reparent(h, parentH)
		}
		attached[remoteID] = true
		return h
	}

	for _, o := range objs {
		resolveParent(o.ID)
	}
	for _, c := range m.tree.children(m.rootHandle) {
		m.recomputeDuplicates(c)
	}
	m.recomputeDuplicates(m.orphansHandle)

	trashed, err := m.fetchTrashed(ctx)
	if err != nil {
		return err
	}
	for _, o := range trashed {
		f := m.buildFile(o)
		f.Remote.Trashed = true
		h := m.tree.alloc(m.trashHandle, f)
		m.ids.insert(h, f)
	}
	m.recomputeDuplicates(m.trashHandle)

	m.lastSync = m.clock.Now()
	return nil
}

// fetchTrashed is a seam so sync/tests can stub what populate's fifth step
// does without inlining it: a second GetAllFiles call with trashed=true, per
// spec.md §4.1 step 5. This is a disjoint listing from step 3's
// trashed=false pass, so no remote id is ever built into two local Files.
func (m *Manager) fetchTrashed(ctx context.Context) ([]*RemoteObject, error) {
	objs, err := m.backend.GetAllFiles(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("GetAllFiles (trashed pass): %w", err)
	}
	return objs, nil
}

func (m *Manager) buildFile(obj *RemoteObject) *File {
	return m.buildFileWithInode(obj, m.nextAvailableInode())
}

func (m *Manager) buildFileWithInode(obj *RemoteObject, inode uint64) *File {
	kind := KindRegularFile
	if obj.IsDir {
		kind = KindDirectoryFile
	}
	mode := m.opts.FileMode
	if obj.IsDir {
		mode = m.opts.DirMode
	}
	return &File{
		Inode: inode,
		Name:  displayNameFor(obj, m.opts.AddSpecialExtensions),
		Kind:  kind,
		Attrs: PosixAttrs{
			Size:  obj.Size,
			Mode:  mode,
			Uid:   m.opts.Uid,
			Gid:   m.opts.Gid,
			Nlink: 1,
			Mtime: obj.ModifiedTime,
			Ctime: obj.ModifiedTime,
			Atime: obj.ModifiedTime,
		},
		Remote: &RemoteDescriptor{
			ID:                obj.ID,
			MimeType:          obj.MimeType,
			Parents:           append([]string(nil), obj.Parents...),
			Trashed:           obj.Trashed,
			Shared:            obj.Shared,
			OriginalExtension: obj.OriginalExtension,
		},
	}
}

// --- resolution -----------------------------------------------------------

// resolve turns any of the four address forms into the current inode
// number for that File, or a KindNotFound error.
func (m *Manager) resolve(op string, ref Ref) (uint64, error) {
	switch ref.kind {
	case RefByInode:
		if _, ok := m.ids.byInode[ref.inode]; !ok {
			return 0, newErr(KindNotFound, op, fmt.Errorf("no such inode %d", ref.inode))
		}
		return ref.inode, nil

	case RefByRemoteID:
		inode, ok := m.ids.inodeByRemote[ref.remoteID]
		if !ok {
			return 0, newErr(KindNotFound, op, fmt.Errorf("no such remote id %q", ref.remoteID))
		}
		return inode, nil

	case RefByHandle:
		n := m.tree.node(ref.handle)
		if n == nil {
			return 0, newErr(KindNotFound, op, fmt.Errorf("no such tree handle"))
		}
		return n.file.Inode, nil

	case RefByParentName:
		parentInode, err := m.resolve(op, ByInode(ref.parent))
		if err != nil {
			return 0, err
		}
		parentHandle := m.ids.handleByInode[parentInode]
		ch := m.tree.childByName(parentHandle, ref.name)
		if ch == noHandle {
			return 0, newErr(KindNotFound, op, fmt.Errorf("no child %q of inode %d", ref.name, ref.parent))
		}
		return m.tree.node(ch).file.Inode, nil

	default:
		return 0, newErr(KindNotFound, op, fmt.Errorf("unrecognized ref"))
	}
}

// Contains reports whether ref currently resolves to a File.
func (m *Manager) Contains(ref Ref) bool {
	_, err := m.resolve("contains", ref)
	return err == nil
}

// GetFile resolves ref and returns a copy of the File it names.
func (m *Manager) GetFile(ref Ref) (*File, error) {
	inode, err := m.resolve("get_file", ref)
	if err != nil {
		return nil, err
	}
	return m.ids.byInode[inode].clone(), nil
}

// GetChildren returns the ordered children of the directory ref names. Per
// spec.md §4.1's contract this never errors: a ref that doesn't resolve, or
// that resolves to a non-directory, simply yields no children.
func (m *Manager) GetChildren(ref Ref) []*File {
	inode, err := m.resolve("get_children", ref)
	if err != nil {
		return nil
	}
	f := m.ids.byInode[inode]
	if !f.isDir() {
		return nil
	}
	h := m.ids.handleByInode[inode]
	var out []*File
	for _, c := range m.tree.children(h) {
		out = append(out, m.tree.node(c).file.clone())
	}
	return out
}

// --- mutation -------------------------------------------------------------

// CreateFile creates a new File named file.Name under the directory parent
// resolves to, both locally and on Drive. No local state changes if the
// remote call fails.
func (m *Manager) CreateFile(ctx context.Context, file *File, parent Ref) (*File, error) {
	const op = "create_file"
	parentInode, err := m.resolve(op, parent)
	if err != nil {
		return nil, err
	}
	parentFile := m.ids.byInode[parentInode]
	if !parentFile.isDir() {
		return nil, newErr(KindPrecondition, op, fmt.Errorf("inode %d is not a directory", parentInode))
	}

	obj, err := m.backend.Create(ctx, parentFile.Remote.ID, file.Name, file.isDir())
	if err != nil {
		return nil, newErr(KindRemote, op, err)
	}

	newFile := m.buildFile(obj)
	newFile.Attrs.Mtime = m.clock.Now()
	parentHandle := m.ids.handleByInode[parentInode]
	h := m.tree.alloc(parentHandle, newFile)
	m.ids.insert(h, newFile)
	m.recomputeDuplicates(parentHandle)

	return newFile.clone(), nil
}

// Rename moves/renames the File ref names to (newParent, newName), doing
// the local move first. On facade failure spec.md §9's resolved Open
// Question applies: the error is surfaced but the local move is kept, to
// be reconciled by the next Sync.
func (m *Manager) Rename(ctx context.Context, ref Ref, newParent uint64, newName string) error {
	const op = "rename"
	inode, err := m.resolve(op, ref)
	if err != nil {
		return err
	}
	newParentInode, err := m.resolve(op, ByInode(newParent))
	if err != nil {
		return err
	}
	newParentFile := m.ids.byInode[newParentInode]
	if !newParentFile.isDir() {
		return newErr(KindPrecondition, op, fmt.Errorf("inode %d is not a directory", newParentInode))
	}

	file := m.ids.byInode[inode]
	h := m.ids.handleByInode[inode]
	oldParentHandle := m.tree.node(h).parent
	newParentHandle := m.ids.handleByInode[newParentInode]

	m.tree.reparent(h, newParentHandle)
	file.Name = newName
	m.recomputeDuplicates(oldParentHandle)
	m.recomputeDuplicates(newParentHandle)

	if file.Remote != nil {
		if rerr := m.backend.MoveTo(ctx, file.Remote.ID, newParentFile.Remote.ID, newName); rerr != nil {
			return newErr(KindRemote, op, rerr)
		}
		file.Remote.Parents = []string{newParentFile.Remote.ID}
	}
	return nil
}

// Delete permanently removes the File ref names, both on Drive and
// locally. The reserved directories cannot be deleted.
func (m *Manager) Delete(ctx context.Context, ref Ref) error {
	const op = "delete"
	inode, err := m.resolve(op, ref)
	if err != nil {
		return err
	}
	file := m.ids.byInode[inode]
	if file.Remote == nil || inode == RootInode {
		return newErr(KindTreeConstraint, op, fmt.Errorf("inode %d is a reserved directory", inode))
	}
	if err := m.backend.DeletePermanently(ctx, file.Remote.ID); err != nil {
		return newErr(KindRemote, op, err)
	}
	m.removeLocal(inode)
	return nil
}

// MoveFileToTrash moves the File ref names into the local Trash directory,
// and, if alsoOnDrive is set, asks the facade to trash it remotely too;
// with alsoOnDrive=false the remote copy is left untouched. The FUSE
// Adapter always passes true here and handles skip_trash by calling Delete
// instead.
func (m *Manager) MoveFileToTrash(ctx context.Context, ref Ref, alsoOnDrive bool) error {
	const op = "move_file_to_trash"
	inode, err := m.resolve(op, ref)
	if err != nil {
		return err
	}
	if inode == RootInode || inode == TrashInode || inode == SharedInode || inode == OrphansInode {
		return newErr(KindTreeConstraint, op, fmt.Errorf("inode %d is a reserved directory", inode))
	}
	file := m.ids.byInode[inode]
	h := m.ids.handleByInode[inode]
	oldParent := m.tree.node(h).parent

	m.tree.reparent(h, m.trashHandle)
	if file.Remote != nil {
		file.Remote.Trashed = true
	}
	m.recomputeDuplicates(oldParent)
	m.recomputeDuplicates(m.trashHandle)

	if alsoOnDrive && file.Remote != nil {
		if err := m.backend.MoveToTrash(ctx, file.Remote.ID); err != nil {
			return newErr(KindRemote, op, err)
		}
	}
	return nil
}

// FileIsTrashed reports the remote descriptor's Trashed flag for ref.
func (m *Manager) FileIsTrashed(ref Ref) (bool, error) {
	inode, err := m.resolve("file_is_trashed", ref)
	if err != nil {
		return false, err
	}
	file := m.ids.byInode[inode]
	if file.Remote == nil {
		return false, nil
	}
	return file.Remote.Trashed, nil
}

// Write forwards a write to the facade's pending-write buffer for ref. An
// unresolvable ref is an error, per spec.md §9's resolved Open Question.
func (m *Manager) Write(ctx context.Context, ref Ref, offset int64, data []byte) error {
	const op = "write"
	inode, err := m.resolve(op, ref)
	if err != nil {
		return err
	}
	file := m.ids.byInode[inode]
	if file.Remote == nil {
		return newErr(KindPrecondition, op, fmt.Errorf("inode %d has no remote counterpart", inode))
	}
	if err := m.backend.Write(ctx, file.Remote.ID, offset, data); err != nil {
		return newErr(KindRemote, op, err)
	}
	end := uint64(offset) + uint64(len(data))
	if end > file.Attrs.Size {
		file.Attrs.Size = end
	}
	file.Attrs.Mtime = m.clock.Now()
	return nil
}

// Flush asks the facade to push any buffered writes for ref to Drive.
func (m *Manager) Flush(ctx context.Context, ref Ref) error {
	const op = "flush"
	inode, err := m.resolve(op, ref)
	if err != nil {
		return err
	}
	file := m.ids.byInode[inode]
	if file.Remote == nil {
		return newErr(KindPrecondition, op, fmt.Errorf("inode %d has no remote counterpart", inode))
	}
	if err := m.backend.Flush(ctx, file.Remote.ID); err != nil {
		return newErr(KindRemote, op, err)
	}
	return nil
}

// Read serves file content through the facade's cache.
func (m *Manager) Read(ctx context.Context, ref Ref, offset int64, size int) ([]byte, error) {
	const op = "read"
	inode, err := m.resolve(op, ref)
	if err != nil {
		return nil, err
	}
	file := m.ids.byInode[inode]
	if file.Remote == nil {
		return nil, newErr(KindPrecondition, op, fmt.Errorf("inode %d has no remote counterpart", inode))
	}
	data, err := m.backend.Read(ctx, file.Remote.ID, offset, size)
	if err != nil {
		return nil, newErr(KindRemote, op, err)
	}
	return data, nil
}

// removeLocal deletes the File at inode and its whole subtree from both
// the tree and identifierMaps. removeSubtree invalidates tree nodes without
// knowing about identifierMaps, so we sweep the index afterward for
// entries whose tree node is now gone.
func (m *Manager) removeLocal(inode uint64) {
	h := m.ids.handleByInode[inode]
	n := m.tree.node(h)
	if n == nil {
		return
	}
	parent := n.parent
	m.tree.removeSubtree(h)
	for idx, ih := range m.ids.handleByInode {
		if m.tree.node(ih) == nil {
			m.ids.remove(idx)
		}
	}
	m.recomputeDuplicates(parent)
}

// --- debug/inspection (SPEC_FULL.md expansion) -----------------------------

// DebugTree renders the tree as indented text: inode, name, remote id, and
// trashed/dup-suffix markers. A non-panicking diagnostic dump in the spirit
// of the teacher's checkInvariants-as-documentation style.
func (m *Manager) DebugTree(w io.Writer) {
	var walk func(h handle, depth int)
	walk = func(h handle, depth int) {
		n := m.tree.node(h)
		if n == nil {
			return
		}
		f := n.file
		marker := ""
		if f.Remote != nil && f.Remote.Trashed {
			marker += " [trashed]"
		}
		if f.DupSuffix != 0 {
			marker += fmt.Sprintf(" [dup=%d]", f.DupSuffix)
		}
		remoteID := ""
		if f.Remote != nil {
			remoteID = f.Remote.ID
		}
		fmt.Fprintf(w, "%*s%s (inode=%d remote=%q)%s\n", depth*2, "", f.Name, f.Inode, remoteID, marker)
		for _, c := range m.tree.children(h) {
			walk(c, depth+1)
		}
	}
	walk(m.rootHandle, 0)
}

// CheckInvariants panics if any of spec.md §8's structural invariants are
// violated. Called from tests and by the FUSE Adapter's
// syncutil.InvariantMutex (fuseadapter/adapter.go); no config option
// controls it. It takes no lock itself (the Manager is single-threaded, see
// Manager doc).
func (m *Manager) CheckInvariants() {
	for _, reserved := range []uint64{RootInode, TrashInode, SharedInode, OrphansInode} {
		if _, ok := m.ids.byInode[reserved]; !ok {
			panic(fmt.Sprintf("filemgr: reserved inode %d missing", reserved))
		}
	}
	if m.tree.node(m.rootHandle).parent != noHandle {
		panic("filemgr: root has a parent")
	}
	for inode, h := range m.ids.handleByInode {
		n := m.tree.node(h)
		if n == nil {
			panic(fmt.Sprintf("filemgr: inode %d indexed but tree node invalid", inode))
		}
		if n.file.Inode != inode {
			panic(fmt.Sprintf("filemgr: inode index mismatch: %d maps to file with inode %d", inode, n.file.Inode))
		}
		if !n.file.isDir() && len(n.children) != 0 {
			panic(fmt.Sprintf("filemgr: non-directory inode %d has children", inode))
		}
		if n.file.Remote != nil {
			if got := m.ids.inodeByRemote[n.file.Remote.ID]; got != inode {
				panic(fmt.Sprintf("filemgr: remote id %q maps to inode %d, not %d", n.file.Remote.ID, got, inode))
			}
		}
	}
}
