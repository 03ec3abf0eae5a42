// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import "unicode"

// Script is the writing system detected in an entity name.
type Script int

const (
	// ScriptMixed covers names mixing scripts, names in other scripts, and
	// names with no letters at all.
	ScriptMixed Script = iota
	ScriptLatin
	ScriptHan
)

func (s Script) String() string {
	switch s {
	case ScriptLatin:
		return "latin"
	case ScriptHan:
		return "han"
	default:
		return "mixed"
	}
}

// DetectScript classifies name by the letters it contains. Only letters
// count; digits, punctuation, and spaces are ignored.
func DetectScript(name string) Script {
	var latin, han, other int
	for _, r := range name {
		switch {
		case unicode.Is(unicode.Han, r):
			han++
		case unicode.Is(unicode.Latin, r):
			latin++
		case unicode.IsLetter(r):
			other++
		}
	}
	switch {
	case other > 0:
		return ScriptMixed
	case latin > 0 && han == 0:
		return ScriptLatin
	case han > 0 && latin == 0:
		return ScriptHan
	default:
		return ScriptMixed
	}
}
