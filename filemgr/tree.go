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

// handle addresses a node in the arena. It is stable for the lifetime of
// the node (never recycled, even after removal) so that code holding one
// across a mutation of an unrelated part of the tree is never confused
// about identity — the same design the teacher's memfs sample gets from
// never shrinking its dirents slice.
type handle uint32

const noHandle handle = ^handle(0)

// treeNode is one slot of the arena. A removed node has valid == false and
// its file/children/parent fields cleared; its index is never reused.
type treeNode struct {
	file     *File
	parent   handle
	children []handle
	valid    bool
}

// tree is the dense, arena-with-handles representation of the directory
// structure: every File has exactly one treeNode, addressed by a handle
// that is simply its index in nodes. Reparenting, insertion, and removal
// are all O(children) slice operations, grounded on the child-list shape
// of jacobsa/fuse's memfs sample (inode.entries []fuseutil.Dirent), scaled
// up to a shared arena instead of one slice per directory inode.
type tree struct {
	nodes []treeNode
}

func newTree() *tree {
	return &tree{}
}

// alloc creates a new node for f as a child of parent (or a root node if
// parent == noHandle) and returns its handle.
func (t *tree) alloc(parent handle, f *File) handle {
	h := handle(len(t.nodes))
	t.nodes = append(t.nodes, treeNode{file: f, parent: parent, valid: true})
	if parent != noHandle {
		t.nodes[parent].children = append(t.nodes[parent].children, h)
	}
	return h
}

func (t *tree) node(h handle) *treeNode {
	if int(h) >= len(t.nodes) {
		return nil
	}
	n := &t.nodes[h]
	if !n.valid {
		return nil
	}
	return n
}

// children returns the ordered, live children of h. The order is
// insertion order modulo removals, which is what readdir stability
// requires: a name once seen at a given position keeps a consistent
// relative order until something is added or removed.
func (t *tree) children(h handle) []handle {
	n := t.node(h)
	if n == nil {
		return nil
	}
	out := make([]handle, 0, len(n.children))
	for _, c := range n.children {
		if t.node(c) != nil {
			out = append(out, c)
		}
	}
	return out
}

// childByName returns the first live child of h whose display name (the
// duplicate-suffixed or special-extension name a directory listing shows,
// per spec.md §8) equals name, or noHandle.
func (t *tree) childByName(h handle, name string) handle {
	n := t.node(h)
	if n == nil {
		return noHandle
	}
	for _, c := range n.children {
		cn := t.node(c)
		if cn != nil && cn.file.DisplayName() == name {
			return c
		}
	}
	return noHandle
}

// detach removes h from its parent's children list without invalidating h
// itself; used as the first half of a reparent.
func (t *tree) detach(h handle) {
	n := t.node(h)
	if n == nil || n.parent == noHandle {
		return
	}
	p := &t.nodes[n.parent]
	for i, c := range p.children {
		if c == h {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
}

// reparent moves h from its current parent to newParent, appending it to
// newParent's children in insertion order (i.e. at the end).
func (t *tree) reparent(h handle, newParent handle) {
	t.detach(h)
	n := t.node(h)
	if n == nil {
		return
	}
	n.parent = newParent
	if newParent != noHandle {
		t.nodes[newParent].children = append(t.nodes[newParent].children, h)
	}
}

// removeSubtree marks h and every descendant invalid and detaches h from
// its parent, returning the handles removed in no particular order.
func (t *tree) removeSubtree(h handle) []handle {
	n := t.node(h)
	if n == nil {
		return nil
	}
	t.detach(h)

	var removed []handle
	var walk func(handle)
	walk = func(cur handle) {
		cn := t.node(cur)
		if cn == nil {
			return
		}
		kids := cn.children
		cn.valid = false
		cn.file = nil
		cn.children = nil
		cn.parent = noHandle
		removed = append(removed, cur)
		for _, k := range kids {
			walk(k)
		}
	}
	walk(h)
	return removed
}
