package entities

// CompanionType is the TRAVEL_STATUS_ACCOMPANY category of a trip.
type CompanionType int

const (
	CompanionUnknown CompanionType = iota
	CompanionSolo
	CompanionPair
	CompanionGroup
	CompanionFamilyPair
	CompanionWithChildren
	CompanionWithParents
	CompanionThreeGenerations
	CompanionFamilyGroup
)

var companionLabels = map[CompanionType]string{
	CompanionSolo:             "나홀로 여행",
	CompanionPair:             "2인 여행(가족 외)",
	CompanionGroup:            "3인 이상 여행(가족 외)",
	CompanionFamilyPair:       "2인 가족 여행",
	CompanionWithChildren:     "자녀 동반 여행",
	CompanionWithParents:      "부모 동반 여행",
	CompanionThreeGenerations: "3대 동반 여행(친척 포함)",
	CompanionFamilyGroup:      "3인 이상 가족 여행(친척 포함)",
}

// ParseCompanionType maps a label to its type; unknown labels give
// CompanionUnknown.
func ParseCompanionType(label string) CompanionType {
	for t, l := range companionLabels {
		if l == label {
			return t
		}
	}
	return CompanionUnknown
}

func (c CompanionType) String() string {
	if l, ok := companionLabels[c]; ok {
		return l
	}
	return ""
}

// FamilyFlag is 1 for family-type travel parties and 0 otherwise, including
// unknown types.
func (c CompanionType) FamilyFlag() float64 {
	switch c {
	case CompanionFamilyPair, CompanionWithChildren, CompanionWithParents,
		CompanionThreeGenerations, CompanionFamilyGroup:
		return 1
	case CompanionSolo, CompanionPair, CompanionGroup:
		return 0
	default:
		return 0
	}
}

// DefaultCompanionCount returns the companion count implied by the type,
// excluding the traveler, when the type fixes it.
func (c CompanionType) DefaultCompanionCount() (int, bool) {
	switch c {
	case CompanionSolo:
		return 0, true
	case CompanionPair, CompanionFamilyPair:
		return 1, true
	default:
		return 0, false
	}
}

// CompanionLabels lists every known companion label in a stable order.
func CompanionLabels() []string {
	out := make([]string, 0, len(companionLabels))
	for t := CompanionSolo; t <= CompanionFamilyGroup; t++ {
		out = append(out, companionLabels[t])
	}
	return out
}
