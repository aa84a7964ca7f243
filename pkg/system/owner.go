package system

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	fwerrors "github.com/fwhub/fwcache-cli/internal/errors"
)

// File and directory modes for the managed cache tree.
const (
	FileMode = os.FileMode(0644)
	DirMode  = os.FileMode(0755)
)

// Owner applies a fixed ownership and mode policy to cache paths. A
// non-enforcing Owner still fixes modes but leaves ownership alone, which is
// what unprivileged runs get.
type Owner struct {
	uid     int
	gid     int
	user    string
	group   string
	enforce bool
}

// NopOwner returns an owner that only enforces file modes.
func NopOwner() *Owner {
	return &Owner{enforce: false}
}

// LookupOwner resolves the configured user:group into an enforcing Owner.
// Ownership enforcement requires root; requesting it without privilege is a
// fatal configuration error, not something to silently downgrade.
func LookupOwner(userName, groupName string) (*Owner, error) {
	if userName == "" {
		return NopOwner(), nil
	}

	if os.Geteuid() != 0 {
		return nil, fwerrors.Fatal(fwerrors.CodeNoPrivilege,
			"ownership enforcement requires root").
			WithContext("owner", userName)
	}

	u, err := user.Lookup(userName)
	if err != nil {
		return nil, fwerrors.Wrap(err, fwerrors.KindFatal, fwerrors.CodeNoPrivilege,
			fmt.Sprintf("unknown user %q", userName))
	}

	gidStr := u.Gid
	if groupName != "" {
		g, err := user.LookupGroup(groupName)
		if err != nil {
			return nil, fwerrors.Wrap(err, fwerrors.KindFatal, fwerrors.CodeNoPrivilege,
				fmt.Sprintf("unknown group %q", groupName))
		}
		gidStr = g.Gid
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return nil, fmt.Errorf("non-numeric uid %q for user %s", u.Uid, userName)
	}
	gid, err := strconv.Atoi(gidStr)
	if err != nil {
		return nil, fmt.Errorf("non-numeric gid %q for user %s", gidStr, userName)
	}

	return &Owner{uid: uid, gid: gid, user: userName, group: groupName, enforce: true}, nil
}

// Enforcing reports whether ownership changes are applied.
func (o *Owner) Enforcing() bool {
	return o.enforce
}

// Apply sets the mode and, when enforcing, the ownership of a path.
func (o *Owner) Apply(path string, mode os.FileMode) error {
	if err := os.Chmod(path, mode); err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", path, err)
	}
	if o.enforce {
		if err := os.Chown(path, o.uid, o.gid); err != nil {
			return fmt.Errorf("failed to set ownership on %s: %w", path, err)
		}
	}
	return nil
}

// MkdirAll creates dir and any missing parents, applying the ownership
// policy to every directory it creates (and only those).
func (o *Owner) MkdirAll(dir string) error {
	var created []string
	cur := dir
	for {
		if _, err := os.Stat(cur); err == nil {
			break
		} else if !os.IsNotExist(err) {
			return err
		}
		created = append([]string{cur}, created...)
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	if err := os.MkdirAll(dir, DirMode); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	for _, d := range created {
		if err := o.Apply(d, DirMode); err != nil {
			return err
		}
	}
	return nil
}

// String describes the policy for diagnostics.
func (o *Owner) String() string {
	if !o.enforce {
		return "owner(mode-only)"
	}
	return fmt.Sprintf("owner(%s:%s)", o.user, o.group)
}
