package testutil

import "errors"

// ErrStore is returned by failing test stores.
var ErrStore = errors.New("testutil: store unavailable")
