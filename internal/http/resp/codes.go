// Package resp holds the application codes carried in JSON response bodies.
package resp

const (
	CodeOK     = 0
	CodeQueued = 1

	CodeBadRequest   = 40000
	CodeUnauthorized = 40100
	CodeForbidden    = 40300
	CodeNotFound     = 40400

	CodeInternalError = 50000
	CodeUnavailable   = 50300
)
