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

// Package drive implements the Drive Facade: the sole point at which
// drivefuse speaks to the Google Drive API. It satisfies filemgr.RemoteBackend
// so the File Manager never imports drive/v3 itself.
package drive

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"

	"github.com/drivefuse/drivefuse/filemgr"
)

const driveFields = "id, name, mimeType, parents, trashed, shared, size, modifiedTime, fullFileExtension"

// Config is the subset of spec.md §6's option set the facade consumes.
type Config struct {
	CacheMaxItems      int
	CacheMaxSeconds    time.Duration
	CacheStatfsSeconds time.Duration
	RequestsPerSecond  float64
}

// Facade is the concrete Drive Facade: a drive/v3 client plus the content
// cache, pending-write buffer, statfs cache, and rate limiter spec.md's
// expanded Drive Facade module calls for.
type Facade struct {
	svc *drive.Service
	cfg Config
	log *slog.Logger

	limiter *rate.Limiter
	cache   *contentCache
	pending *pendingWriteSet
	statfs  *statfsCache

	cursorOnce sync.Once
	cursor     changeCursor
	cursorErr  error
}

// New wraps an already-authorized drive/v3 service (built from an
// oauth2.TokenSource by the caller, per the OAuth token storage module) in
// a Facade.
func New(svc *drive.Service, cfg Config, log *slog.Logger) *Facade {
	if log == nil {
		log = slog.Default()
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	return &Facade{
		svc:     svc,
		cfg:     cfg,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		cache:   newContentCache(cfg.CacheMaxItems, cfg.CacheMaxSeconds),
		pending: newPendingWriteSet(),
		statfs:  newStatfsCache(cfg.CacheStatfsSeconds),
	}
}

func (f *Facade) wait(ctx context.Context) error {
	return f.limiter.Wait(ctx)
}

func (f *Facade) RootID(ctx context.Context) (string, error) {
	if err := f.wait(ctx); err != nil {
		return "", err
	}
	file, err := f.svc.Files.Get("root").Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drive: Files.Get(root): %w", err)
	}
	return file.Id, nil
}

// GetAllFiles walks Files.List one page at a time until PageToken is
// exhausted, collecting every object matching the trashed filter into one
// slice — the same collect-until-exhausted shape the teacher's
// gcsproxy.ListingProxy and the reference drive_db.readChanges use for their
// own paginated calls. spec.md §4.1 step 3 populates the live tree from
// trashed=false only; step 5 fetches trashed=true separately into Trash.
func (f *Facade) GetAllFiles(ctx context.Context, trashed bool) ([]*filemgr.RemoteObject, error) {
	var out []*filemgr.RemoteObject
	pageToken := ""
	for {
		if err := f.wait(ctx); err != nil {
			return nil, err
		}
		call := f.svc.Files.List().
			Fields(drive.Field(fmt.Sprintf("nextPageToken, files(%s)", driveFields))).
			Q(fmt.Sprintf("trashed = %t", trashed)).
			PageSize(1000).
			IncludeItemsFromAllDrives(true).
			SupportsAllDrives(true)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("drive: Files.List: %w", err)
		}
		for _, fl := range resp.Files {
			out = append(out, toRemoteObject(fl))
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return out, nil
}

// GetAllChanges walks Changes.List from the facade's stored start page
// token, advancing the cursor only after the page is fully consumed — the
// "cursor advances only on success" rule the teacher applies to GCS
// listing generations, mirrored here for Drive's change cursor, and the
// same poll/apply shape as the reference drive_db.pollForChanges.
func (f *Facade) GetAllChanges(ctx context.Context) ([]*filemgr.Change, error) {
	cursor, err := f.loadCursor(ctx)
	if err != nil {
		return nil, err
	}

	var out []*filemgr.Change
	pageToken := cursor
	for {
		if err := f.wait(ctx); err != nil {
			return nil, err
		}
		call := f.svc.Changes.List(pageToken).
			Fields(drive.Field(fmt.Sprintf("nextPageToken, newStartPageToken, changes(fileId, removed, file(%s))", driveFields))).
			IncludeItemsFromAllDrives(true).
			SupportsAllDrives(true)
		resp, err := call.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("drive: Changes.List: %w", err)
		}
		for _, c := range resp.Changes {
			change := &filemgr.Change{RemoteID: c.FileId, Removed: c.Removed}
			if !c.Removed && c.File != nil {
				change.Object = toRemoteObject(c.File)
			}
			out = append(out, change)
		}
		if resp.NewStartPageToken != "" {
			f.saveCursor(resp.NewStartPageToken)
			break
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return out, nil
}

func (f *Facade) Create(ctx context.Context, parentID, name string, isDir bool) (*filemgr.RemoteObject, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	df := &drive.File{Name: name, Parents: []string{parentID}}
	if isDir {
		df.MimeType = "application/vnd.google-apps.folder"
	}
	created, err := f.svc.Files.Create(df).Fields(drive.Field(driveFields)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("drive: Files.Create: %w", err)
	}
	return toRemoteObject(created), nil
}

func (f *Facade) DeletePermanently(ctx context.Context, id string) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.cache.invalidate(id)
	f.pending.drop(id)
	if err := f.svc.Files.Delete(id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("drive: Files.Delete: %w", err)
	}
	return nil
}

func (f *Facade) MoveToTrash(ctx context.Context, id string) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	_, err := f.svc.Files.Update(id, &drive.File{Trashed: true}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("drive: Files.Update(trash): %w", err)
	}
	return nil
}

func (f *Facade) MoveTo(ctx context.Context, id, newParentID, name string) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	existing, err := f.svc.Files.Get(id).Fields("parents").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("drive: Files.Get(parents): %w", err)
	}
	call := f.svc.Files.Update(id, &drive.File{Name: name}).AddParents(newParentID)
	if len(existing.Parents) > 0 {
		call = call.RemoveParents(existing.Parents[0])
	}
	if _, err := call.Context(ctx).Do(); err != nil {
		return fmt.Errorf("drive: Files.Update(move): %w", err)
	}
	return nil
}

func (f *Facade) Write(ctx context.Context, id string, offset int64, data []byte) error {
	f.pending.write(id, offset, data)
	return nil
}

func (f *Facade) Flush(ctx context.Context, id string) error {
	region, ok := f.pending.take(id)
	if !ok {
		return nil
	}
	if err := f.wait(ctx); err != nil {
		return err
	}
	_, err := f.svc.Files.Update(id, &drive.File{}).Media(region.reader()).Context(ctx).Do()
	if err != nil {
		f.pending.restore(id, region)
		return fmt.Errorf("drive: Files.Update(media): %w", err)
	}
	f.cache.invalidate(id)
	return nil
}

func (f *Facade) Read(ctx context.Context, id string, offset int64, size int) ([]byte, error) {
	if data, ok := f.cache.get(id, offset, size); ok {
		return data, nil
	}
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := f.svc.Files.Get(id).Download()
	if err != nil {
		return nil, fmt.Errorf("drive: Files.Get.Download: %w", err)
	}
	defer resp.Body.Close()
	data, err := readAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("drive: reading download body: %w", err)
	}
	f.cache.put(id, data)
	return sliceWindow(data, offset, size), nil
}

// StatFS returns the account's storage quota (used/total bytes), cached
// for cache_statfs_seconds as spec.md's expanded Drive Facade module
// requires.
func (f *Facade) StatFS(ctx context.Context) (used, total uint64, err error) {
	if u, t, ok := f.statfs.get(); ok {
		return u, t, nil
	}
	if err := f.wait(ctx); err != nil {
		return 0, 0, err
	}
	about, err := f.svc.About.Get().Fields("storageQuota").Context(ctx).Do()
	if err != nil {
		return 0, 0, fmt.Errorf("drive: About.Get: %w", err)
	}
	if about.StorageQuota == nil {
		return 0, 0, nil
	}
	u := uint64(about.StorageQuota.Usage)
	t := uint64(about.StorageQuota.Limit)
	f.statfs.put(u, t)
	return u, t, nil
}

func toRemoteObject(fl *drive.File) *filemgr.RemoteObject {
	o := &filemgr.RemoteObject{
		ID:                fl.Id,
		Name:              fl.Name,
		MimeType:          fl.MimeType,
		Parents:           fl.Parents,
		Trashed:           fl.Trashed,
		Shared:            fl.Shared,
		IsDir:             fl.MimeType == "application/vnd.google-apps.folder",
		Size:              uint64(fl.Size),
		OriginalExtension: fl.FullFileExtension,
	}
	if fl.ModifiedTime != "" {
		if t, err := time.Parse(time.RFC3339, fl.ModifiedTime); err == nil {
			o.ModifiedTime = t
		}
	}
	return o
}
