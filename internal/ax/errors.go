package ax

import "fmt"

// Code is a platform accessibility result code.
type Code int

// Result codes shared by the macOS accessibility API.
const (
	CodeSuccess                       Code = 0
	CodeFailure                       Code = -25200
	CodeIllegalArgument               Code = -25201
	CodeInvalidUIElement              Code = -25202
	CodeInvalidUIElementObserver      Code = -25203
	CodeCannotComplete                Code = -25204
	CodeAttributeUnsupported          Code = -25205
	CodeActionUnsupported             Code = -25206
	CodeNotificationUnsupported       Code = -25207
	CodeNotImplemented                Code = -25208
	CodeNotificationAlreadyRegistered Code = -25209
	CodeNotificationNotRegistered     Code = -25210
	CodeAPIDisabled                   Code = -25211
	CodeNoValue                       Code = -25212
	CodeParameterizedAttrUnsupported  Code = -25213
	CodeNotEnoughPrecision            Code = -25214
)

var codeNames = map[Code]string{
	CodeFailure:                       "failure",
	CodeIllegalArgument:               "illegal argument",
	CodeInvalidUIElement:              "invalid element",
	CodeInvalidUIElementObserver:      "invalid observer",
	CodeCannotComplete:                "cannot complete",
	CodeAttributeUnsupported:          "attribute unsupported",
	CodeActionUnsupported:             "action unsupported",
	CodeNotificationUnsupported:       "notification unsupported",
	CodeNotImplemented:                "not implemented",
	CodeNotificationAlreadyRegistered: "notification already registered",
	CodeNotificationNotRegistered:     "notification not registered",
	CodeAPIDisabled:                   "api disabled",
	CodeNoValue:                       "no value",
	CodeParameterizedAttrUnsupported:  "parameterized attribute unsupported",
	CodeNotEnoughPrecision:            "not enough precision",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	if c == CodeSuccess {
		return "success"
	}
	return fmt.Sprintf("code %d", int(c))
}

// Error is a failed bridge call.
type Error struct {
	Op   string
	Code Code
}

func (e *Error) Error() string {
	return fmt.Sprintf("ax: %s: %s", e.Op, e.Code)
}

// Check converts a result code into an error. Success yields nil and a
// disabled API yields ErrPermissionDenied.
func Check(op string, code Code) error {
	switch code {
	case CodeSuccess:
		return nil
	case CodeAPIDisabled:
		return ErrPermissionDenied
	default:
		return &Error{Op: op, Code: code}
	}
}
