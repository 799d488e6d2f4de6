package source

import "errors"

var (
	ErrSourceUnavailable = errors.New("source object unavailable")
	ErrEmptyEvent        = errors.New("event contains no object records")
)
