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

// Package filemgr implements the in-memory directory tree that backs a
// mounted Drive session: the File Manager core.
package filemgr

import "fmt"

// ErrorKind classifies a File Manager error so callers (in particular the
// FUSE adapter) can map it onto the right errno without string matching.
type ErrorKind int

const (
	// KindNotFound means the reference did not resolve to a known File.
	KindNotFound ErrorKind = iota
	// KindPrecondition means the reference resolved but the operation is
	// not valid for that File (e.g. creating an entry under a non-directory).
	KindPrecondition
	// KindTreeConstraint means the operation would violate an invariant of
	// the tree itself (e.g. deleting a reserved directory).
	KindTreeConstraint
	// KindRemote wraps a failure reported by the Drive Facade.
	KindRemote
	// KindSyncSkipped means sync() was called before sync_interval elapsed.
	KindSyncSkipped
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindPrecondition:
		return "precondition"
	case KindTreeConstraint:
		return "tree-constraint"
	case KindRemote:
		return "remote"
	case KindSyncSkipped:
		return "sync-skipped"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every exported Manager operation.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("filemgr: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("filemgr: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind ErrorKind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// ErrSyncSkipped is returned by Manager.Sync when called before the
// configured sync interval has elapsed. It is a sentinel, not a failure.
var ErrSyncSkipped = &Error{Kind: KindSyncSkipped, Op: "sync"}

// IsNotFound reports whether err is a filemgr.Error of KindNotFound.
func IsNotFound(err error) bool { return hasKind(err, KindNotFound) }

// IsRemote reports whether err is a filemgr.Error of KindRemote.
func IsRemote(err error) bool { return hasKind(err, KindRemote) }

func hasKind(err error, kind ErrorKind) bool {
	fe, ok := err.(*Error)
	return ok && fe.Kind == kind
}
