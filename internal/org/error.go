package org

import "github.com/dojoware/collect/internal/errorutil"

var (
	ErrNotFound = errorutil.New("org not found")
)
