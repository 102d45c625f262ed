package logging

import "github.com/ilcsoft/mokkadump/pkg/mokka"

// Discard is a mokka.Logger that drops every message.
var Discard mokka.Logger = discard{}

type discard struct{}

func (discard) Verbose(string, ...interface{}) {}
func (discard) Info(string, ...interface{})    {}
func (discard) Error(string, ...interface{})   {}
