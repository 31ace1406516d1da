package chunker

import "regexp"

// BoundaryPattern marks the start of a new topical section. Patterns are kept
// as an ordered configuration list so new procedure types can be added
// without touching the scanning algorithm. When several patterns match the
// same line, the highest priority wins; ties go to the earlier declaration.
type BoundaryPattern struct {
	Pattern  *regexp.Regexp
	Topic    string
	Priority int
}

// boundaryPatterns match uppercase heading text so body prose does not open
// sections. Declaration order is the tie-break, so it is load-bearing.
var boundaryPatterns = []BoundaryPattern{
	{regexp.MustCompile(`WAKE\s+TURBULENCE`), TopicWakeTurbulence, 15},
	{regexp.MustCompile(`EMERGENC(?:Y|IES)`), TopicEmergency, 13},
	{regexp.MustCompile(`SEPARATION\s+MINIMA|MINIMA`), TopicSeparationMinima, 12},
	{regexp.MustCompile(`RUNWAY\s+INCURSION`), TopicRunwayIncursion, 12},
	{regexp.MustCompile(`APPROACH`), TopicApproach, 11},
	{regexp.MustCompile(`DEPARTURE`), TopicDeparture, 11},
	{regexp.MustCompile(`RADAR\s+SEPARATION`), TopicRadarSeparation, 10},
	{regexp.MustCompile(`\bAPPLICATION\b`), TopicGeneral, 10},
}

// Topic labels assigned to sections by the boundary scanner.
const (
	TopicWakeTurbulence   = "wake_turbulence"
	TopicEmergency        = "emergency_procedures"
	TopicSeparationMinima = "separation_minima"
	TopicRunwayIncursion  = "runway_incursion"
	TopicApproach         = "approach_procedures"
	TopicDeparture        = "departure_procedures"
	TopicRadarSeparation  = "radar_separation"
	TopicGeneral          = "general_application"
)

// procedureTypes maps a section topic to its procedure type.
var procedureTypes = map[string]string{
	TopicWakeTurbulence:   "separation",
	TopicEmergency:        "emergency",
	TopicSeparationMinima: "separation",
	TopicRunwayIncursion:  "surface",
	TopicApproach:         "approach",
	TopicDeparture:        "departure",
	TopicRadarSeparation:  "separation",
	TopicGeneral:          "general",
}

// topicKeywords are the static keyword seeds per topic, unioned with frequent
// content words at emission time.
var topicKeywords = map[string][]string{
	TopicWakeTurbulence:   {"wake", "turbulence", "vortex", "heavy"},
	TopicEmergency:        {"emergency", "mayday", "priority"},
	TopicSeparationMinima: {"separation", "minima", "spacing"},
	TopicRunwayIncursion:  {"runway", "incursion", "surface"},
	TopicApproach:         {"approach", "clearance", "final"},
	TopicDeparture:        {"departure", "climb", "release"},
	TopicRadarSeparation:  {"radar", "separation", "target"},
	TopicGeneral:          {"application", "procedures"},
}

// fallbackTitles name sections whose boundary line cleans down to nothing.
var fallbackTitles = map[string]string{
	TopicWakeTurbulence:   "Wake Turbulence Procedures",
	TopicEmergency:        "Emergency Procedures",
	TopicSeparationMinima: "Separation Minima",
	TopicRunwayIncursion:  "Runway Incursion Procedures",
	TopicApproach:         "Approach Procedures",
	TopicDeparture:        "Departure Procedures",
	TopicRadarSeparation:  "Radar Separation",
	TopicGeneral:          "General Application",
}

// matchBoundary evaluates every pattern against a line and returns the
// winning pattern, or nil when none match.
func matchBoundary(line string) *BoundaryPattern {
	var best *BoundaryPattern
	for i := range boundaryPatterns {
		p := &boundaryPatterns[i]
		if !p.Pattern.MatchString(line) {
			continue
		}
		if best == nil || p.Priority > best.Priority {
			best = p
		}
	}
	return best
}
