package errorutil

import (
	"errors"
	"fmt"
)

func New(text string) error {
	return errors.New(text)
}

func Format(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
