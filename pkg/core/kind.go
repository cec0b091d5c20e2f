package core

// Kind names the datatype of a cell. It lives in the cell header and is the
// primary dispatch key for every operation in the core.
type Kind uint8

const (
	// KindTrash marks a cell that holds no readable value. Freshly expanded
	// data stack slots and swept cells have this kind.
	KindTrash Kind = iota

	KindVoid
	KindBlank
	KindBar
	KindLitBar
	KindLogic
	KindInteger
	KindDecimal
	KindPercent
	KindMoney
	KindChar
	KindPair
	KindTuple
	KindTime
	KindDate

	// Any-word kinds. These are bindable.
	KindWord
	KindSetWord
	KindGetWord
	KindLitWord
	KindRefinement
	KindIssue

	// Any-string kinds. The payload is a series of runes.
	KindString
	KindFile
	KindEmail
	KindURL
	KindTag

	KindBinary
	KindBitset

	// Any-array kinds. These are bindable: their deep contents may contain
	// relative words that need the array's specifier to resolve.
	KindBlock
	KindGroup
	KindPath
	KindSetPath
	KindGetPath
	KindLitPath

	KindTypeset
	KindFunction

	// Any-context kinds. The payload is a varlist series.
	KindObject
	KindFrame
	KindError

	numKinds
)

// AnyWord reports whether k is one of the word kinds.
func AnyWord(k Kind) bool { return k >= KindWord && k <= KindIssue }

// AnyString reports whether k is one of the string kinds.
func AnyString(k Kind) bool { return k >= KindString && k <= KindTag }

// AnyArray reports whether k is one of the array kinds.
func AnyArray(k Kind) bool { return k >= KindBlock && k <= KindLitPath }

// AnyPath reports whether k is one of the path kinds.
func AnyPath(k Kind) bool { return k >= KindPath && k <= KindLitPath }

// AnyContext reports whether k is one of the context kinds.
func AnyContext(k Kind) bool { return k >= KindObject && k <= KindError }

// AnySeries reports whether the payload of kind k is a series position.
func AnySeries(k Kind) bool { return AnyString(k) || AnyArray(k) || k == KindBinary }

// Bindable reports whether cells of kind k carry a binding in their extra
// slot. Only bindable cells distinguish relative from specific.
func Bindable(k Kind) bool {
	return AnyWord(k) || AnyArray(k) || k == KindFrame || k == KindFunction
}

// kindName holds the user-visible name of each kind, as it appears in
// construct syntax and in molded datatypes.
var kindName = [numKinds]string{
	KindTrash:      "trash",
	KindVoid:       "void",
	KindBlank:      "blank",
	KindBar:        "bar",
	KindLitBar:     "lit-bar",
	KindLogic:      "logic",
	KindInteger:    "integer",
	KindDecimal:    "decimal",
	KindPercent:    "percent",
	KindMoney:      "money",
	KindChar:       "char",
	KindPair:       "pair",
	KindTuple:      "tuple",
	KindTime:       "time",
	KindDate:       "date",
	KindWord:       "word",
	KindSetWord:    "set-word",
	KindGetWord:    "get-word",
	KindLitWord:    "lit-word",
	KindRefinement: "refinement",
	KindIssue:      "issue",
	KindString:     "string",
	KindFile:       "file",
	KindEmail:      "email",
	KindURL:        "url",
	KindTag:        "tag",
	KindBinary:     "binary",
	KindBitset:     "bitset",
	KindBlock:      "block",
	KindGroup:      "group",
	KindPath:       "path",
	KindSetPath:    "set-path",
	KindGetPath:    "get-path",
	KindLitPath:    "lit-path",
	KindTypeset:    "typeset",
	KindFunction:   "function",
	KindObject:     "object",
	KindFrame:      "frame",
	KindError:      "error",
}

// Name returns the user-visible name of the kind, e.g. "set-word".
func (k Kind) Name() string {
	if int(k) < len(kindName) && kindName[k] != "" {
		return kindName[k]
	}
	return "unknown"
}

// KindNamed resolves a kind from its user-visible name. The second return
// is false if no kind has that name.
func KindNamed(name string) (Kind, bool) {
	for k, n := range kindName {
		if n == name && n != "" {
			return Kind(k), true
		}
	}
	return KindTrash, false
}
