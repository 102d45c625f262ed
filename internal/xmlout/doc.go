// Package xmlout writes resolved model parameters as a flat list of
// <constant name="..." value="..."/> elements preceded by a comment header
// recording the model, the source database and the extraction time.
//
// The output has no root element; it is meant to be included into a larger
// compact XML detector description.
package xmlout
