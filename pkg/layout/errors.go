package layout

import "errors"

// ErrNoFormat is returned when a requested line-count variant does not exist.
var ErrNoFormat = errors.New("layout: no format for line count")
