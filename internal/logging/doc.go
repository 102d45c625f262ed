// Package logging implements mokka.Logger.
//
// ConsoleLogger writes prefixed lines to stderr or any io.Writer and is used
// by the command line. Discard drops everything and is the default for
// library callers that pass no logger.
package logging
