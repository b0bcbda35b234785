package config

import "github.com/pkg/errors"

var (
	ErrKeyNotFound     = errors.New("key not found")
	ErrKeyExists       = errors.New("key already exists")
	ErrNotMapping      = errors.New("not a mapping")
	ErrNotScalar       = errors.New("not a scalar")
	ErrMissingValue    = errors.New("missing mandatory value")
	ErrInterpolation   = errors.New("unable to resolve interpolation")
	ErrInvalidOverride = errors.New("invalid override")
)
