package model

// ListingStatus is the lifecycle status shared by requirement and supply
// listings. The set is closed; transitions happen only through the ledger
// derivation and the withdraw/expiry operations.
type ListingStatus int

const (
	ListingPublished ListingStatus = 0
	ListingPartial   ListingStatus = 1
	ListingWithdrawn ListingStatus = 2
	ListingFilled    ListingStatus = 3
)

func (s ListingStatus) String() string {
	switch s {
	case ListingPublished:
		return "published"
	case ListingPartial:
		return "partially_filled"
	case ListingWithdrawn:
		return "withdrawn"
	case ListingFilled:
		return "fully_filled"
	default:
		return "unknown"
	}
}

// Valid reports whether s is a member of the closed set.
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingPublished, ListingPartial, ListingWithdrawn, ListingFilled:
		return true
	}
	return false
}

// Terminal reports whether a listing in this status accepts no further deals.
func (s ListingStatus) Terminal() bool {
	return s == ListingWithdrawn || s == ListingFilled
}
