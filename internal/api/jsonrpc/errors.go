package jsonrpc

// Error is a JSON-RPC failure as rendered inside the result envelope.
type Error struct {
	Code    int    `json:"error_code"`
	Name    string `json:"error"`
	Message string `json:"error_message,omitempty"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Name
}

// Protocol-level error codes follow JSON-RPC 2.0; domain codes are small
// positive values.
const (
	codeParse          = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternal       = -32603

	codeNotFound     = 19
	codeNotSupported = 32
)

func errParse(message string) *Error {
	return &Error{Code: codeParse, Name: "parseError", Message: message}
}

func errMissingMethod() *Error {
	return &Error{Code: codeInvalidRequest, Name: "missingMethod", Message: "Missing method field"}
}

func errMethodNotFound(method string) *Error {
	return &Error{Code: codeMethodNotFound, Name: "methodNotFound", Message: "Unknown method: " + method}
}

func errInvalidParams(message string) *Error {
	return &Error{Code: codeInvalidParams, Name: "invalidParams", Message: message}
}

func errInternal(message string) *Error {
	return &Error{Code: codeInternal, Name: "internal", Message: message}
}

func errNotFound(what string) *Error {
	return &Error{Code: codeNotFound, Name: "entryNotFound", Message: what + " not found"}
}

func errNotSupported(message string) *Error {
	return &Error{Code: codeNotSupported, Name: "notSupported", Message: message}
}
