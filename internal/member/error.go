package member

import "github.com/dojoware/collect/internal/errorutil"

var (
	ErrNotFound = errorutil.New("member not found")
)
