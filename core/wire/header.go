package wire

// Message IDs, stable per spec §4.1's message catalogue. The top-level
// header byte is flags(3 msb) | id(5 lsb): ids below occupy the low 5
// bits (0-31) and are shared across the scouting/transport/network
// categories since any given link only ever decodes one category at a
// time (datagram scouting channel vs. the established transport's
// stream of transport/network messages).
const (
	// Scouting (datagram only).
	IDScout byte = iota
	IDHello

	// Transport.
	IDInitSyn
	IDInitAck
	IDOpenSyn
	IDOpenAck
	IDClose
	IDKeepAlive
	IDFrame
	IDFragment
	IDJoin

	// Network.
	IDPush
	IDRequest
	IDResponse
	IDResponseFinal
	IDDeclare
	IDOAM
)

// Declare-body IDs occupy their own 5-bit space: they are only ever
// decoded inside a Declare message's body loop, never at top level.
const (
	DeclKeyExpr byte = iota
	UndeclKeyExpr
	DeclSubscriber
	UndeclSubscriber
	DeclQueryable
	UndeclQueryable
	DeclToken
	UndeclToken
	DeclFinal
)

// header flag bits, within the 3 most-significant bits of the header
// byte.
const (
	flagZ  = 1 << 7 // extensions present
	flagX1 = 1 << 6 // category-specific
	flagX2 = 1 << 5 // category-specific
)

const idMask = 0x1f

func makeHeader(id byte, flags byte) byte {
	return (flags & (flagZ | flagX1 | flagX2)) | (id & idMask)
}

func splitHeader(h byte) (id byte, flags byte) {
	return h & idMask, h &^ idMask
}

// Category-specific flag meanings, named per message so callers don't
// have to remember which of X1/X2 a given message repurposes.
const (
	flagFrameReliable = flagX1 // Frame: reliable vs best-effort conduit
	flagFragmentMore  = flagX1 // Fragment: more fragments follow
	flagFragmentRel   = flagX2 // Fragment: reliable vs best-effort conduit
	flagCloseLinkOnly = flagX1 // Close: link-only, don't tear down the session
	flagDeclareQoS    = flagX1 // Declare: carries a QoS conduit id extension
	flagPushPut       = flagX1 // Push: PUT vs DELETE
	flagResponseFinal = flagX1 // Response: final flag folded into ResponseFinal at top level instead
)
