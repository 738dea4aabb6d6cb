// Package numbers turns an unpredictable seed into a lottery combination and
// validates the combinations buyers choose.
package numbers

import "charitylottery/internal/models"

// SeedSize is the number of bytes Derive consumes.
const SeedSize = 32

// Derive maps a seed to five distinct common numbers in [1,64] and a special
// number in [1,31]. Bytes are read left to right; a byte contributes byte%64
// unless that is zero or already taken, and scanning stops at the fifth
// number. If the seed runs out first the common numbers are all zero. The
// special number is the first byte%32 != 0 among the bytes left after the
// common scan, or zero when there is none.
func Derive(seed [SeedSize]byte) ([models.CommonNumberCount]uint8, uint8) {
	var (
		common   [models.CommonNumberCount]uint8
		seen     [models.MaxCommonNumber]bool
		found    int
		consumed int
	)

	for _, b := range seed {
		consumed++
		v := b % models.MaxCommonNumber
		if v == 0 || seen[v] {
			continue
		}
		seen[v] = true
		common[found] = v
		found++
		if found == models.CommonNumberCount {
			break
		}
	}
	if found < models.CommonNumberCount {
		common = [models.CommonNumberCount]uint8{}
	}

	var special uint8
	for _, b := range seed[consumed:] {
		if v := b % models.MaxSpecialNumber; v != 0 {
			special = v
			break
		}
	}
	return common, special
}

// CommonInRange reports whether every number is in [1,64].
func CommonInRange(common [models.CommonNumberCount]uint8) bool {
	for _, n := range common {
		if n < 1 || n > models.MaxCommonNumber {
			return false
		}
	}
	return true
}

// HasDuplicates reports whether any number appears twice.
func HasDuplicates(common [models.CommonNumberCount]uint8) bool {
	var seen [256]bool
	for _, n := range common {
		if seen[n] {
			return true
		}
		seen[n] = true
	}
	return false
}

// SpecialInRange reports whether n is in [1,32].
func SpecialInRange(n uint8) bool {
	return n >= 1 && n <= models.MaxSpecialNumber
}

// CountShared returns the size of the intersection of the two sets.
func CountShared(a, b [models.CommonNumberCount]uint8) int {
	var inA [256]bool
	for _, n := range a {
		inA[n] = true
	}
	var counted [256]bool
	shared := 0
	for _, n := range b {
		if inA[n] && !counted[n] {
			counted[n] = true
			shared++
		}
	}
	return shared
}
