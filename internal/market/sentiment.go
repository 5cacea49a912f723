package market

// Sentiment is a label derived from the 20-day return.
type Sentiment string

const (
	VeryBearish Sentiment = "very_bearish"
	Bearish     Sentiment = "bearish"
	Neutral     Sentiment = "neutral"
	Bullish     Sentiment = "bullish"
	VeryBullish Sentiment = "very_bullish"
)

// Band thresholds on the 20-day return.
const (
	veryBearishMax = -0.025
	bearishMax     = -0.005
	bullishMin     = 0.005
	veryBullishMin = 0.025
)

// Classify maps statistics onto a sentiment band. Missing LongReturn is
// neutral.
func Classify(st Stats) Sentiment {
	if st.LongReturn == nil {
		return Neutral
	}
	r := *st.LongReturn
	switch {
	case r <= veryBearishMax:
		return VeryBearish
	case r <= bearishMax:
		return Bearish
	case r >= veryBullishMin:
		return VeryBullish
	case r >= bullishMin:
		return Bullish
	default:
		return Neutral
	}
}
