// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/strata/cmd/strata/cli"
	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/vfsfuse"
)

type mountParams struct {
	chainParams
	Mountpoint string `json:"mountpoint"  flag:"mountpoint,m" desc:"directory to mount on (created if missing)"`
	AllowOther bool   `json:"allow_other" flag:"allow-other"  desc:"let other users read the mount (needs user_allow_other)"`
}

func mountCommand() *cli.Command {
	var params mountParams
	return &cli.Command{
		Name:    "mount",
		Summary: "Mount the resolved entry read-only with FUSE",
		Description: `Resolve a chain and expose its entry as a read-only FUSE filesystem
until interrupted.

A directory entry is mounted as the mount root. A stream entry (an
unlocked volume, a decompressed stream) appears as a single file named
"content".`,
		Usage:  "strata mount --chain FILE --mountpoint DIR",
		Params: func() any { return &params },
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("mount takes no positional arguments, got %q", args[0])
			}
			if params.Mountpoint == "" {
				return fmt.Errorf("--mountpoint is required")
			}
			return withChain(params.chainParams, "mount", func(s *session, spec *pathspec.PathSpec) error {
				return runMount(s, spec, params)
			})
		},
	}
}

func runMount(s *session, spec *pathspec.PathSpec, params mountParams) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mounted, err := vfsfuse.Mount(vfsfuse.Options{
		Mountpoint: params.Mountpoint,
		Resolver:   s.resolver,
		Spec:       spec,
		AllowOther: params.AllowOther,
		Logger:     s.logger,
	})
	if err != nil {
		return err
	}

	unmounted := make(chan struct{})
	go func() {
		mounted.Wait()
		close(unmounted)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("unmounting", "mountpoint", params.Mountpoint)
	case <-unmounted:
		s.logger.Info("unmounted externally", "mountpoint", params.Mountpoint)
	}
	return mounted.Unmount()
}
