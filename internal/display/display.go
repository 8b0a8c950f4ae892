// Package display provides human-readable names for machine codes.
//
// Rule: code is for machines, words are for humans.
// Use these functions in CLI output, tree labels, logs, and reports.
// Keep raw codes for JSON fields, map keys, and equality comparisons.
package display

import "github.com/bmltera/codescanner/internal/finding"

// --- Risk Tiers ---

var riskNames = map[finding.RiskScore]string{
	finding.RiskLow:    "Low",
	finding.RiskMedium: "Medium",
	finding.RiskHigh:   "High",
}

// riskIcons keys terminal glyphs by tier, mirroring the severity icons of
// the editor surface.
var riskIcons = map[finding.RiskScore]string{
	finding.RiskLow:    "●",
	finding.RiskMedium: "▲",
	finding.RiskHigh:   "✖",
}

// Risk returns the human-readable name for a risk tier.
// Unknown tiers are returned as-is.
func Risk(r finding.RiskScore) string {
	if name, ok := riskNames[r]; ok {
		return name
	}
	return string(r)
}

// RiskIcon returns the glyph for a risk tier ("?" when unknown).
func RiskIcon(r finding.RiskScore) string {
	if icon, ok := riskIcons[r]; ok {
		return icon
	}
	return "?"
}

// FindingLabel formats the tree label for one finding: "name (risk)".
func FindingLabel(f finding.Finding) string {
	return f.Vulnerability + " (" + string(f.RiskScore) + ")"
}
