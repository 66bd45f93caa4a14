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

package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseutil"
	"github.com/spf13/cobra"
	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/drivefuse/drivefuse/drive"
	"github.com/drivefuse/drivefuse/filemgr"
	"github.com/drivefuse/drivefuse/fuseadapter"
	"github.com/drivefuse/drivefuse/internal/auth"
	"github.com/drivefuse/drivefuse/internal/clock"
	"github.com/drivefuse/drivefuse/internal/logger"
)

var mountCmd = &cobra.Command{
	Use:   "mount <session> <mountpoint>",
	Short: "Mount a Google Drive account at a local directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkBindErr(); err != nil {
			return err
		}
		return runMount(cmd.Context(), args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(mountCmd)
}

func runMount(ctx context.Context, session, mountPoint string) error {
	log, err := logger.Init(logger.Config{
		Severity: Config.LogSeverity,
		Format:   Config.LogFormat,
		FilePath: Config.LogFilePath,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	if Config.MountCheck {
		if err := checkMountable(mountPoint); err != nil {
			return fmt.Errorf("mount check failed: %w", err)
		}
	}

	facade, err := newFacade(ctx, session, log)
	if err != nil {
		return err
	}

	mgr, err := filemgr.New(ctx, facade, filemgr.Options{
		SyncInterval:         Config.SyncInterval,
		RenameIdenticalFiles: Config.RenameIdenticalFiles,
		AddSpecialExtensions: Config.AddExtensionsToSpecialFiles,
		SkipTrash:            Config.SkipTrash,
		DirMode:              0755,
		FileMode:             0644,
	}, clock.Real{}, log)
	if err != nil {
		return fmt.Errorf("populating file tree: %w", err)
	}

	adapter := fuseadapter.New(mgr, facade, Config.SkipTrash, log)
	server := fuseutil.NewFileSystemServer(adapter)

	log.Info("mounting", "session", session, "mountpoint", mountPoint)
	mfs, err := fuse.Mount(mountPoint, server, mountConfig(session))
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	return mfs.Join(ctx)
}

// newFacade builds the Drive Facade for session: an authenticated
// drive/v3 service wrapped with the cache/rate-limit/pending-write layer
// drive.New adds.
func newFacade(ctx context.Context, session string, log *slog.Logger) (*drive.Facade, error) {
	httpClient, err := auth.HTTPClient(ctx, session, Config.ClientSecret)
	if err != nil {
		return nil, fmt.Errorf("loading credentials for session %q (did you run \"drivefuse login %s\"?): %w", session, session, err)
	}

	svc, err := drivev3.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("creating drive client: %w", err)
	}

	return drive.New(svc, drive.Config{
		CacheMaxItems:      Config.CacheMaxItems,
		CacheMaxSeconds:    Config.CacheMaxSeconds,
		CacheStatfsSeconds: Config.CacheStatfsSeconds,
		RequestsPerSecond:  10,
	}, log), nil
}

// checkMountable mounts a throwaway no-op filesystem at mountPoint and
// unmounts it immediately, failing fast on a bad mountpoint before the
// expensive work of authenticating and listing the whole Drive tree.
func checkMountable(mountPoint string) error {
	server := fuseutil.NewFileSystemServer(&fuseutil.NotImplementedFileSystem{})
	mfs, err := fuse.Mount(mountPoint, server, &fuse.MountConfig{})
	if err != nil {
		return err
	}
	if err := mfs.Unmount(); err != nil {
		return err
	}
	return mfs.Join(context.Background())
}

func mountConfig(session string) *fuse.MountConfig {
	options := make(map[string]string)
	for _, o := range Config.MountOptions {
		options[o] = ""
	}
	cfg := &fuse.MountConfig{
		FSName:     "drivefuse",
		Subtype:    "drivefuse",
		VolumeName: fsName(session),
		Options:    options,
	}
	if Config.Debug {
		cfg.DebugLogger = log.New(os.Stderr, "fuse_debug: ", 0)
	}
	return cfg
}

func fsName(session string) string {
	if session == "" {
		return "drivefuse"
	}
	return "drivefuse:" + session
}
