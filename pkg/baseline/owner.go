package baseline

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Owner holds a parsed UID/GID applied to written baseline files. CI
// runners often execute as root while the checkout belongs to another
// user; setting an owner keeps the baseline directory usable after the
// run.
type Owner struct {
	UID int
	GID int
}

// ParseOwner parses a "UID:GID" string. An empty string yields nil,
// meaning files keep the process's default ownership.
func ParseOwner(owner string) (*Owner, error) {
	if owner == "" {
		return nil, nil
	}

	uidStr, gidStr, ok := strings.Cut(owner, ":")
	if !ok {
		return nil, fmt.Errorf("invalid owner %q, expected UID:GID", owner)
	}

	uid, err := strconv.Atoi(uidStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UID %q: %w", uidStr, err)
	}

	gid, err := strconv.Atoi(gidStr)
	if err != nil {
		return nil, fmt.Errorf("invalid GID %q: %w", gidStr, err)
	}

	return &Owner{UID: uid, GID: gid}, nil
}

// chown applies the ownership best-effort; a baseline written with the
// wrong owner is still a valid baseline.
func (o *Owner) chown(path string) {
	if o == nil {
		return
	}

	_ = os.Chown(path, o.UID, o.GID)
}
