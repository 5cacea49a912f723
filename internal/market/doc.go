// Package market holds the collaborators the engine drives for each
// symbol: price and news sources, statistics, sentiment classification and
// the Markdown summary.
//
// Sources never fail for "no data". An unknown symbol, a missing file or an
// empty response yields an empty Series or item list with a nil error.
// Errors are reserved for transport or decoding failures, and the engine
// degrades those to empty data as well.
package market
