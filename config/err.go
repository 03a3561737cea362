package config

import (
	"errors"

	"github.com/ezrec/fpvm/translate"
)

var f = translate.From

var (
	ErrNegative      = errors.New(f("size must not be negative"))
	ErrEntryCapacity = errors.New(f("entry pc must be inside the program buffer"))
)
