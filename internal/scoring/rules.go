package scoring

import "token-radar/internal/domain"

// factors are the inputs of the rule tables.
type factors struct {
	composite int
	momentum  int
	liquidity int
	flow      int
	sentiment float64
}

type recommendationRule struct {
	result domain.Recommendation
	match  func(f factors) bool
}

// First match wins; the last rule always matches.
var recommendationRules = []recommendationRule{
	{domain.RecommendationStrongBuy, func(f factors) bool {
		return f.composite >= 75 && f.momentum >= 60 && f.liquidity >= 70
	}},
	{domain.RecommendationBuy, func(f factors) bool { return f.composite >= 62 }},
	{domain.RecommendationWatch, func(f factors) bool { return f.composite >= 50 }},
	{domain.RecommendationCaution, func(f factors) bool { return f.composite >= 35 }},
	{domain.RecommendationAvoid, func(factors) bool { return true }},
}

type archetypeRule struct {
	result domain.Archetype
	match  func(f factors) bool
}

var archetypeRules = []archetypeRule{
	{domain.ArchetypeMoonshot, func(f factors) bool {
		return f.composite >= 75 && f.flow >= 75 && f.sentiment >= 65
	}},
	{domain.ArchetypeRocket, func(f factors) bool {
		return f.composite >= 65 && f.sentiment >= 70
	}},
	{domain.ArchetypeWhaleMagnet, func(f factors) bool {
		return f.flow >= 80 && f.composite >= 55
	}},
	{domain.ArchetypeHiddenGem, func(f factors) bool {
		return f.composite >= 60 && f.flow < 50
	}},
	{domain.ArchetypeSlowBurner, func(f factors) bool {
		return f.composite >= 50 && f.sentiment >= 50
	}},
	{domain.ArchetypeRugRisk, func(f factors) bool {
		return f.composite < 35 || f.sentiment < 25
	}},
	{domain.ArchetypeSleeper, func(factors) bool { return true }},
}

// recommend applies the recommendation table.
func recommend(f factors) domain.Recommendation {
	for _, r := range recommendationRules {
		if r.match(f) {
			return r.result
		}
	}
	return domain.RecommendationAvoid
}

// classify applies the archetype table.
func classify(f factors) domain.Archetype {
	for _, r := range archetypeRules {
		if r.match(f) {
			return r.result
		}
	}
	return domain.ArchetypeSleeper
}
