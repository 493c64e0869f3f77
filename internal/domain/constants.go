package domain

const (
	ReleaseTypeSingle = "single"
	ReleaseTypeAlbum  = "album"
	ReleaseTypeEP     = "ep"
)

// ReleaseTypes lists accepted release types.
var ReleaseTypes = []string{ReleaseTypeSingle, ReleaseTypeAlbum, ReleaseTypeEP}

// Display placeholders used when a referenced row is missing.
const (
	UnknownArtist = "Unknown Artist"
	UnknownLabel  = "Independent"
	Unknown       = "Unknown"
)

const (
	PayoutMethodUPI  = "upi"
	PayoutMethodBank = "bank"
)

const (
	LedgerRoyalty    = "royalty"
	LedgerWithdrawal = "withdrawal"
	LedgerRefund     = "refund"
)

const (
	NotificationStatusChanged = "STATUS_CHANGED"
	NotificationWalletCredit  = "WALLET_CREDIT"
)

// Cover art must be at least this many pixels on each side.
const MinCoverDimension = 3000

// Upload size caps.
const (
	MaxCoverBytes = 25 << 20
	MaxAudioBytes = 200 << 20
)
