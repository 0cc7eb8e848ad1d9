package model

import (
	"sort"
	"strings"
)

// Comparison dimensions reported in a MismatchSet.
const (
	DimRole       = "role"
	DimBestLabel  = "best_label"
	DimTitleMatch = "title_match"
	DimSubrole    = "subrole"
)

// Soft score weights.
const (
	SoftRoleWeight  = 0.40
	SoftLabelWeight = 0.50
	SoftPressWeight = 0.10
)

// Mismatch is the recorded and live value of one differing dimension.
type Mismatch struct {
	Recorded string `yaml:"recorded" json:"recorded"`
	Live     string `yaml:"live"     json:"live"`
}

// MismatchSet maps a comparison dimension to its differing values.
// An empty set is a perfect match.
type MismatchSet map[string]Mismatch

// Has reports whether dim is present.
func (m MismatchSet) Has(dim string) bool {
	_, ok := m[dim]
	return ok
}

// Keys returns the dimensions in sorted order.
func (m MismatchSet) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m MismatchSet) String() string {
	if len(m) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(m))
	for _, k := range m.Keys() {
		parts = append(parts, k+"("+m[k].Recorded+" != "+m[k].Live+")")
	}
	return strings.Join(parts, ", ")
}

// Compare checks a recorded signature against a live element.
//
// Roles and subroles only mismatch when both sides report one. Labels are
// compared after normalisation: exactly in strict mode, by shared significant
// words when trusted is set. Label-centric roles with a meaningful recorded
// title additionally need that title to equal the live title or label.
func Compare(rec *RecordedSignature, live *LiveElementInfo, trusted bool) MismatchSet {
	m := MismatchSet{}

	if rec.Role != "" && live.Role != "" && rec.Role != live.Role {
		m[DimRole] = Mismatch{Recorded: rec.Role, Live: live.Role}
	}

	rb := rec.RecordedLabel()
	lb := live.BestLabel
	if rb != "" && lb != "" && !labelsAgree(rb, lb, trusted) {
		m[DimBestLabel] = Mismatch{Recorded: rb, Live: lb}
	}

	if LabelCentricRoles.Has(rec.Role) && !IsTrivialLabel(rec.Title) {
		want := NormText(rec.Title)
		if want != NormText(live.Title) && want != NormText(lb) {
			got := live.Title
			if got == "" {
				got = lb
			}
			m[DimTitleMatch] = Mismatch{Recorded: rec.Title, Live: got}
		}
	}

	if rec.Subrole != "" && live.Subrole != "" && rec.Subrole != live.Subrole {
		m[DimSubrole] = Mismatch{Recorded: rec.Subrole, Live: live.Subrole}
	}
	return m
}

func labelsAgree(recorded, live string, trusted bool) bool {
	rn, ln := NormText(recorded), NormText(live)
	if rn == ln {
		return true
	}
	if !trusted {
		return false
	}
	// Labels without significant words fall back to exact equality.
	if len(SignificantWords(rn)) == 0 || len(SignificantWords(ln)) == 0 {
		return false
	}
	return SharesSignificantWord(rn, ln)
}

// identityKeys returns the normalised title-or-label key of each side.
func identityKeys(rec *RecordedSignature, live *LiveElementInfo) (string, string) {
	recKey := NormText(rec.Title)
	if recKey == "" {
		recKey = NormText(rec.RecordedLabel())
	}
	liveKey := NormText(live.Title)
	if liveKey == "" {
		liveKey = NormText(live.BestLabel)
	}
	return recKey, liveKey
}

func rolesConflict(rec *RecordedSignature, live *LiveElementInfo) bool {
	return rec.Role != "" && live.Role != "" && rec.Role != live.Role
}

// StrictIdentity is the binary match gate: roles agree when both are present
// and the normalised title-or-label keys are equal and non-empty.
func StrictIdentity(rec *RecordedSignature, live *LiveElementInfo) bool {
	if rolesConflict(rec, live) {
		return false
	}
	recKey, liveKey := identityKeys(rec, live)
	return recKey != "" && recKey == liveKey
}

// SoftScore is a weighted 0..1 confidence combining role agreement, label
// token overlap and a press action. A pair passing StrictIdentity always
// scores at least SoftRoleWeight+SoftLabelWeight.
func SoftScore(rec *RecordedSignature, live *LiveElementInfo) float64 {
	score := 0.0
	if !rolesConflict(rec, live) {
		score += SoftRoleWeight
	}

	overlap := 0.0
	recLabel := rec.BestLabel
	if recLabel == "" {
		recLabel = rec.Title
	}
	if recLabel != "" && live.BestLabel != "" {
		overlap = WordOverlap(recLabel, live.BestLabel)
	}
	if recKey, liveKey := identityKeys(rec, live); recKey != "" && recKey == liveKey {
		overlap = 1
	}
	score += SoftLabelWeight * overlap

	if live.HasPress() {
		score += SoftPressWeight
	}
	if score > 1 {
		score = 1
	}
	return score
}

// AllowContainerMismatch is the safety-gate exception: exactly one mismatch
// is tolerated when the live role is a safe container and the context is
// trusted, or when both recorded and live roles are safe containers.
func AllowContainerMismatch(rec *RecordedSignature, live *LiveElementInfo, mismatches int, trusted bool) bool {
	if mismatches != 1 {
		return false
	}
	if trusted && SafeContainerRoles.Has(live.Role) {
		return true
	}
	return SafeContainerRoles.Has(rec.Role) && SafeContainerRoles.Has(live.Role)
}
