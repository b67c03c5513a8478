package cache

import "github.com/cperrin88/ralph/pkg/fsutil"

// MirrorDirPerm is the permission mode used when recreating a scope's
// sources directory after a clean (rwx------).
var MirrorDirPerm = fsutil.DirModePrivate
