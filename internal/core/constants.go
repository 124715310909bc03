// Package core holds the domain model shared by every layer: agent roles,
// analysis requests, pipeline runs, reports and the error taxonomy.
package core

import "fmt"

// Role identifies one of the four analysis agents.
type Role string

const (
	// RoleMarket analyzes market size, growth and demand patterns.
	RoleMarket Role = "market"

	// RoleCompetitive maps the competitive landscape around the targets.
	RoleCompetitive Role = "competitive"

	// RoleRisk quantifies strategic, market, operational and regulatory risk.
	RoleRisk Role = "risk"

	// RoleStrategic synthesizes every upstream analysis into recommendations.
	RoleStrategic Role = "strategic"
)

// AllRoles returns the agent roles in execution order.
func AllRoles() []Role {
	return []Role{RoleMarket, RoleCompetitive, RoleRisk, RoleStrategic}
}

// RoleOrder returns the numeric order of a role (0-indexed).
func RoleOrder(r Role) int {
	switch r {
	case RoleMarket:
		return 0
	case RoleCompetitive:
		return 1
	case RoleRisk:
		return 2
	case RoleStrategic:
		return 3
	default:
		return -1
	}
}

// ParseRole converts a string to a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if RoleOrder(r) < 0 {
		return "", ErrValidation(CodeUnknownRole, fmt.Sprintf("unknown agent role: %s", s))
	}
	return r, nil
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// Title returns the report section title for the role.
func (r Role) Title() string {
	switch r {
	case RoleMarket:
		return "Market Intelligence"
	case RoleCompetitive:
		return "Competitive Landscape"
	case RoleRisk:
		return "Strategic Risk Assessment"
	case RoleStrategic:
		return "Strategic Recommendations"
	default:
		return string(r)
	}
}

// Label returns the short upper-case label used in fallback text.
func (r Role) Label() string {
	switch r {
	case RoleMarket:
		return "MARKET"
	case RoleCompetitive:
		return "COMPETITIVE"
	case RoleRisk:
		return "RISK"
	case RoleStrategic:
		return "STRATEGIC"
	default:
		return string(r)
	}
}

// Default model tiers, most capable first.
const (
	ModelLlama70B  = "llama-3.1-70b-versatile"
	ModelMixtral   = "mixtral-8x7b-32768"
	ModelLlama8B   = "llama-3.1-8b-instant"
	DefaultBaseURL = "https://api.groq.com/openai/v1"
)

// DefaultModelTiers is the ordered model fallback list.
var DefaultModelTiers = []string{ModelLlama70B, ModelMixtral, ModelLlama8B}

// Input bounds.
const (
	MaxQueryLength  = 4000
	MaxTargetLength = 100
)
