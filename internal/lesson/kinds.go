package lesson

// Error kinds lesson content can raise and assert_raise can expect.
const (
	KindException     = "Exception"
	KindScriptError   = "ScriptError"
	KindSyntaxError   = "SyntaxError"
	KindStandardError = "StandardError"
	KindNameError     = "NameError"
	KindNoMethodError = "NoMethodError"
	KindArgumentError = "ArgumentError"
	KindTypeError     = "TypeError"
	KindIndexError    = "IndexError"

	KindSystemStackError = "SystemStackError"
)

// errorKindParents maps each kind to its parent. Exception is the root.
var errorKindParents = map[string]string{
	KindException:     "",
	KindScriptError:   KindException,
	KindSyntaxError:   KindScriptError,
	KindStandardError: KindException,
	KindNameError:     KindStandardError,
	KindNoMethodError: KindNameError,
	KindArgumentError: KindStandardError,
	KindTypeError:     KindStandardError,
	KindIndexError:    KindStandardError,

	KindSystemStackError: KindException,
}

// IsErrorKind reports whether name is a known error kind.
func IsErrorKind(name string) bool {
	_, ok := errorKindParents[name]
	return ok
}

// KindMatches reports whether an error of kind raised satisfies an
// expectation of kind expected: the kinds are equal or expected is an
// ancestor of raised.
func KindMatches(raised, expected string) bool {
	for k := raised; k != ""; k = errorKindParents[k] {
		if k == expected {
			return true
		}
		if _, ok := errorKindParents[k]; !ok {
			return false
		}
	}
	return false
}
