package toggles

import (
	"errors"
	"fmt"
	"math/bits"
)

var ErrPreconditionViolated = errors.New("resolver precondition violated: more than one toggle flipped")

// Resolve corrects proposed, which differs from current by one flipped toggle,
// so that no conflict group has more than one active bit. The newly activated
// toggle wins and evicts the group's previous member. When the flipped toggle
// sits in several violated groups, every group's eviction applies.
//
// A proposed mask that already satisfies every group is returned unchanged.
func Resolve(groups []Mask, current, proposed Mask) Mask {
	var combined Mask
	resolved := false
	for _, g := range groups {
		masked := proposed & g
		if masked.Count() <= 1 {
			continue
		}
		corrected := masked &^ (current & g)
		switch corrected.Count() {
		case 1:
		case 0:
			// current already broke this group; keep one member deterministically.
			corrected = highestBit(masked)
		default:
			// Several members newly set at once.
			corrected = highestBit(corrected)
		}
		// Bits outside g follow proposed, so a flip elsewhere survives the
		// repair of a group current had already broken.
		r := (proposed &^ g) | corrected
		if !resolved {
			combined = r
			resolved = true
		} else {
			combined &= r
		}
	}
	if !resolved {
		return proposed
	}
	return combined
}

// ResolveChecked is Resolve plus a precondition check. The best-effort result
// is returned even when err is ErrPreconditionViolated.
func ResolveChecked(groups []Mask, current, proposed Mask) (Mask, error) {
	out := Resolve(groups, current, proposed)
	if flipped := (current ^ proposed).Count(); flipped > 1 {
		return out, fmt.Errorf("%w: %d bits differ (current=%s proposed=%s)", ErrPreconditionViolated, flipped, current, proposed)
	}
	return out, nil
}

func highestBit(m Mask) Mask {
	if m == 0 {
		return 0
	}
	return Mask(1) << (63 - bits.LeadingZeros64(uint64(m)))
}
