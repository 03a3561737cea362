package io

import (
	"errors"

	"github.com/ezrec/fpvm/translate"
)

var f = translate.From

var (
	// Console errors
	ErrReadFloat = errors.New(f("failed to read float value"))
)
