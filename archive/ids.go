package archive

import (
	"fmt"

	"github.com/drobin/nutsgo/backend"
	"github.com/drobin/nutsgo/internal/bytecodec"
)

// maxBlockIDSize mirrors internal/pagechain's reservation: every block id
// the tree or an entry header stores gets a fixed-width slot wide enough
// for any realistic backend id, rather than a backend-specific fixed
// size (spec.md §3 "Block id ... fixed binary size" assumes a per-backend
// constant; this picks one generous enough for all of them).
const maxBlockIDSize = 32
const blockIDWidth = 1 + maxBlockIDSize

func putBlockID(w *bytecodec.Writer, id backend.BlockID) error {
	raw := id.Bytes()
	if len(raw) > maxBlockIDSize {
		return fmt.Errorf("archive: block id is %d bytes, exceeds the %d-byte slot", len(raw), maxBlockIDSize)
	}
	if err := w.PutU8(uint8(len(raw))); err != nil {
		return err
	}
	padded := make([]byte, maxBlockIDSize)
	copy(padded, raw)
	return w.PutBytes(padded)
}

func takeBlockID(r *bytecodec.Reader) (backend.BlockID, error) {
	n, err := r.TakeU8()
	if err != nil {
		return backend.BlockID{}, err
	}
	padded := make([]byte, maxBlockIDSize)
	if err := r.TakeBytes(padded); err != nil {
		return backend.BlockID{}, err
	}
	if n == 0 {
		return backend.NullID, nil
	}
	return backend.NewBlockID(padded[:n]), nil
}
