package testutil

import "github.com/hugo-lorenzo-mato/srip/internal/core"

// CloudStorageQuery and CloudStorageTargets describe the reference
// enterprise cloud storage analysis.
const (
	CloudStorageQuery   = "Analyze the enterprise cloud storage market"
	CloudStorageTargets = "Dropbox, Google Drive, Microsoft OneDrive"
)

// CannedMarket is a well-formed market analysis.
const CannedMarket = `## MARKET SCALE AND TRAJECTORY
The enterprise cloud storage market reached an estimated $98.4 billion in 2024 and is growing at a 21.7% compound annual rate, with enterprise seats representing roughly 62% of revenue.

## DEMAND PATTERNS
- Hybrid work keeps collaboration storage demand high across mid-market firms.
- Compliance-driven archiving grows 14% per year in regulated industries.

## GROWTH OPPORTUNITIES
- AI-assisted search and classification adds an estimated $6 billion opportunity by 2027.
- Vertical offerings for healthcare and legal remain underserved.

## MARKET STRUCTURE
The top five vendors hold about 71% share; price competition is strongest in the SMB tier.

## MARKET OUTLOOK
Expect consolidation and bundling with productivity suites over the next 24 months.`

// CannedCompetitive is a well-formed competitive analysis covering the
// cloud storage targets.
const CannedCompetitive = `## COMPETITIVE POSITIONS
- Microsoft OneDrive leads enterprise adoption through Microsoft 365 bundling.
- Google Drive is strong in education and digital-native companies via Workspace.
- Dropbox competes on cross-platform simplicity and a loyal prosumer base.

## STRATEGIC ADVANTAGES
Microsoft OneDrive benefits from identity and security integration; Google Drive from real-time collaboration; Dropbox from neutral third-party integrations.

## COMPETITIVE VULNERABILITIES
Dropbox lacks a bundled productivity suite. Google Drive faces data residency objections in some regions.

## MARKET ACTIVITIES
All three invest heavily in AI summarization and governance tooling.

## COMPETITIVE OUTLOOK
Suite bundling will keep pressure on standalone vendors.`

// CannedRisk is a well-formed risk assessment with quantified scores.
const CannedRisk = `## STRATEGIC RISKS
Risk Level: Medium (Quantified Score: 6/10)
Platform bundling could erode standalone pricing power.

## MARKET RISKS
Risk Level: Medium (Quantified Score: 5/10)
Storage price deflation continues at roughly 10% per year.

## OPERATIONAL RISKS
Risk Level: Low (Quantified Score: 3/10)
Outage exposure is mitigated by multi-region redundancy.

## REGULATORY RISKS
Risk Level: High (Quantified Score: 7/10)
Data sovereignty rules in the EU tighten procurement requirements.

## INTEGRATED RISK PROFILE
Overall risk is moderate, driven mainly by regulation and bundling.`

// CannedStrategic is a well-formed set of recommendations.
const CannedStrategic = `## STRATEGIC RECOMMENDATIONS
1. Prioritize integrations with Microsoft 365 and Google Workspace to reduce switching friction.
2. Launch a compliance edition with EU data residency for regulated industries.
3. Invest in AI-powered search and automated classification features.
4. Develop vertical bundles for healthcare and legal customers.
5. Establish channel partnerships with managed service providers.
6. Expand usage-based pricing to compete in the SMB segment.`

// CannedOutput returns the canned analysis for role.
func CannedOutput(role core.Role) string {
	switch role {
	case core.RoleMarket:
		return CannedMarket
	case core.RoleCompetitive:
		return CannedCompetitive
	case core.RoleRisk:
		return CannedRisk
	case core.RoleStrategic:
		return CannedStrategic
	default:
		return ""
	}
}
