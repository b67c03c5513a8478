package cache

import "fmt"

// ErrCacheDirectory is returned when a manager is pointed at an invalid
// mirror cache directory (SetDirectory with an empty path).
var ErrCacheDirectory = fmt.Errorf("invalid mirror cache directory")
