package sourcing

import "fmt"

var strategyDescriptions = map[string]string{
	StrategyStockKeywords:        "job keyword stock clips",
	StrategyStockGeneric:         "generic stock clips",
	StrategyKenBurns:             "stock photo pans",
	StrategyGradient:             "synthesized gradient",
	StrategyStarfield:            "synthesized starfield",
	StrategyMoodTrack:            "library track",
	StrategyAmbientTone:          "synthesized tone",
	StrategyBurn:                 "burned subtitles",
	StrategySubtitlePassthrough:  "unsubtitled copy",
	StrategyDuckedMix:            "ducked mix",
	StrategyNarrationPassthrough: "narration only",
}

// Describe returns a human label for a strategy name.
func Describe(strategy string) string {
	if desc, ok := strategyDescriptions[strategy]; ok {
		return desc
	}
	return strategy
}

// DegradationNote formats the result note recorded when a ladder settles on
// a rung other than its first.
func DegradationNote(ladder, strategy string) string {
	return fmt.Sprintf("%s ladder fell back to %s", ladder, Describe(strategy))
}
