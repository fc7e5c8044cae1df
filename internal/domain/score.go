package domain

// LayerScore is one factor of the scoring model.
type LayerScore struct {
	Name    string `json:"name"`
	Score   int    `json:"score"` // always within [0,100]
	Display string `json:"value"`
}

// Recommendation is the advisory signal derived from the composite score.
type Recommendation string

const (
	RecommendationStrongBuy Recommendation = "STRONG_BUY"
	RecommendationBuy       Recommendation = "BUY"
	RecommendationWatch     Recommendation = "WATCH"
	RecommendationCaution   Recommendation = "CAUTION"
	RecommendationAvoid     Recommendation = "AVOID"
)

// Archetype is a named behavioral classification.
type Archetype string

const (
	ArchetypeMoonshot    Archetype = "Moonshot"
	ArchetypeRocket      Archetype = "Rocket"
	ArchetypeWhaleMagnet Archetype = "Whale Magnet"
	ArchetypeHiddenGem   Archetype = "Hidden Gem"
	ArchetypeSlowBurner  Archetype = "Slow Burner"
	ArchetypeRugRisk     Archetype = "Rug Risk"
	ArchetypeSleeper     Archetype = "Sleeper"
)

// ScoredToken is an enriched candidate with its full score breakdown.
type ScoredToken struct {
	EnrichedCandidate
	Layers         []LayerScore   `json:"layers"`
	Composite      int            `json:"compositeScore"`
	Recommendation Recommendation `json:"recommendation"`
	Archetype      Archetype      `json:"archetype"`
	Spiking        bool           `json:"spiking"`
}

// Layer returns the named layer and whether it exists.
func (t ScoredToken) Layer(name string) (LayerScore, bool) {
	for _, l := range t.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return LayerScore{}, false
}
