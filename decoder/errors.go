package decoder

import "github.com/pkg/errors"

// Sentinel errors returned (wrapped via github.com/pkg/errors, so callers
// compare with errors.Is rather than equality) by every decode and catalog
// entry point in this package.
var (
	// ErrInvalid marks a bitstream field that violates the format (bad
	// start code, zero dimensions, malformed partition table).
	ErrInvalid = errors.New("decoder: invalid bitstream")

	// ErrUnsupported marks a structurally valid field this decoder
	// intentionally does not implement (a Simple loop filter header, a
	// reserved profile value).
	ErrUnsupported = errors.New("decoder: unsupported bitstream feature")

	// ErrLogicError marks an internal invariant violation: a frame name
	// with an unresolvable dependency, a reference slot read before it
	// was ever written.
	ErrLogicError = errors.New("decoder: internal invariant violated")

	// ErrTruncated marks a frame payload that ends before its header
	// claims it should. Concealment-enabled callers may recover from
	// this by substituting ZEROMV/LAST and zero residues.
	ErrTruncated = errors.New("decoder: truncated frame data")

	// ErrTransport marks a failure fetching frame data from a remote
	// catalog or peer, as opposed to a failure decoding data already in
	// hand.
	ErrTransport = errors.New("decoder: transport failure")

	// ErrCatalogMiss marks a lookup for a frame name the catalog does not
	// have an entry for.
	ErrCatalogMiss = errors.New("decoder: frame not found in catalog")
)
