package decoder

import "github.com/deepteams/alfalfa/decoder/bitio"

// BoolReader is the VP8 boolean decoder used throughout header, mode, and
// coefficient parsing. Aliased here so the rest of this package can refer to
// it without qualifying every call site with the bitio import.
type BoolReader = bitio.BoolReader

// NewBoolReader constructs a BoolReader over data.
var NewBoolReader = bitio.NewBoolReader
