package cpu

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// linkMapVersion is bumped when the Symbol encoding changes.
const linkMapVersion = 1

// linkMap is the on-disk link map sidecar of a program image.
type linkMap struct {
	Version int      `cbor:"1,keyasint"`
	Words   int      `cbor:"2,keyasint"`
	Symbols []Symbol `cbor:"3,keyasint"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cpu: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalSymbols serializes the link map of a program to canonical CBOR.
func (prog *Program) MarshalSymbols() ([]byte, error) {
	return cborEncMode.Marshal(&linkMap{
		Version: linkMapVersion,
		Words:   len(prog.Words),
		Symbols: prog.Symbols,
	})
}

// UnmarshalSymbols restores a link map produced by MarshalSymbols.
func (prog *Program) UnmarshalSymbols(data []byte) error {
	var lm linkMap
	if err := cbor.Unmarshal(data, &lm); err != nil {
		return fmt.Errorf("cpu: unmarshal link map: %w", err)
	}
	if lm.Version != linkMapVersion {
		return fmt.Errorf("cpu: link map version %d unsupported", lm.Version)
	}

	prog.Symbols = slices.SortedStableFunc(slices.Values(lm.Symbols), func(a, b Symbol) int {
		if a.Pc != b.Pc {
			return a.Pc - b.Pc
		}
		return strings.Compare(a.Name, b.Name)
	})
	return nil
}
