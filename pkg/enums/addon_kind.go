package enums

import "fmt"

// AddonKind classifies experience add-ons. Standard add-ons are extras priced
// on top of the base ride, location picks the track, voucher picks the
// delivery format of the gift voucher.
type AddonKind string

const (
	AddonKindStandard AddonKind = "standard"
	AddonKindLocation AddonKind = "location"
	AddonKindVoucher  AddonKind = "voucher"
)

var validAddonKinds = []AddonKind{
	AddonKindStandard,
	AddonKindLocation,
	AddonKindVoucher,
}

// String implements fmt.Stringer.
func (a AddonKind) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AddonKind.
func (a AddonKind) IsValid() bool {
	for _, candidate := range validAddonKinds {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAddonKind converts raw input into an AddonKind.
func ParseAddonKind(value string) (AddonKind, error) {
	for _, candidate := range validAddonKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid addon kind %q", value)
}
