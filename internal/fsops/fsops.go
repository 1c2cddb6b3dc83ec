// Package fsops provides the filesystem primitives used by provisioning:
// idempotent directory creation with explicit mode and ownership, path
// canonicalization, and strict symlink creation.
package fsops

import (
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"github.com/ksyq12/webhostinit/internal/errors"
)

// EnsureDir creates path (and missing ancestors) with the given mode if it
// does not exist. An existing path that is not a directory is a conflict.
// The mode is reapplied even when the directory pre-existed, so re-running
// enforces permissions. Non-empty owner and group are applied via chown.
func EnsureDir(path string, mode os.FileMode, owner, group string) error {
	modeStr := "0" + strconv.FormatUint(uint64(mode), 8)

	info, err := os.Lstat(path)
	switch {
	case err == nil && !info.IsDir():
		return errors.FileSystem("create", path, modeStr, os.ErrExist)
	case err != nil && !os.IsNotExist(err):
		return errors.FileSystem("create", path, modeStr, err)
	case err != nil:
		if err := os.MkdirAll(path, mode); err != nil {
			return errors.FileSystem("create", path, modeStr, err)
		}
	}

	// MkdirAll applies the umask, and a pre-existing directory keeps its
	// old bits, so chmod unconditionally.
	if err := os.Chmod(path, mode); err != nil {
		return errors.FileSystem("chmod", path, modeStr, err)
	}

	if owner != "" {
		uid, err := lookupUID(owner)
		if err != nil {
			return errors.Ownership("chown", path, owner, "", err)
		}
		if err := os.Chown(path, uid, -1); err != nil {
			return errors.Ownership("chown", path, owner, "", err)
		}
	}

	if group != "" {
		gid, err := lookupGID(group)
		if err != nil {
			return errors.Ownership("chgrp", path, "", group, err)
		}
		if err := os.Chown(path, -1, gid); err != nil {
			return errors.Ownership("chgrp", path, "", group, err)
		}
	}

	return nil
}

// Canonicalize resolves path to its absolute, symlink-free form. It fails
// when the path does not exist, so it is only used for paths that must
// already be present.
func Canonicalize(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", errors.PathResolution(path, err)
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return "", errors.PathResolution(path, err)
	}
	return abs, nil
}

// Symlink creates link pointing at target. There are no overwrite
// semantics: an existing file at link is an error.
func Symlink(target, link string) error {
	if err := os.Symlink(target, link); err != nil {
		return errors.FileSystem("symlink", link, "", err)
	}
	return nil
}

func lookupUID(owner string) (int, error) {
	u, err := user.Lookup(owner)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(u.Uid)
}

func lookupGID(group string) (int, error) {
	g, err := user.LookupGroup(group)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(g.Gid)
}
