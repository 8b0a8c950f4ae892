package analyzer

import "strings"

// responseContract pins the envelope shape the parser expects. The model is
// told to answer with raw JSON; fence stripping downstream covers the ones
// that ignore it.
const responseContract = `Respond with ONLY a JSON object, no markdown and no commentary:
{"findings": [
  {"vulnerability": string, "risk_score": "low"|"medium"|"high",
   "filename": string, "lines_affected": [int, ...],
   "explanation": string, "recommendation": string,
   "reference": string (optional URL)}
]}
If there is nothing to report, respond with {"findings": []}.`

func dependenciesPrompt(specifiers []string) string {
	var b strings.Builder
	b.WriteString("You are a security analyst. Review the following dependency specifiers ")
	b.WriteString("for known-vulnerable, deprecated, or suspicious packages.\n\n")
	for _, s := range specifiers {
		b.WriteString("- ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	b.WriteString("\nUse the manifest file path as the filename of each finding and leave lines_affected empty.\n\n")
	b.WriteString(responseContract)
	return b.String()
}

func codePrompt(content, path string) string {
	var b strings.Builder
	b.WriteString("You are a security analyst. Review the following source file for security issues ")
	b.WriteString("(injection, secrets, unsafe deserialization, path traversal, weak crypto).\n\n")
	b.WriteString("File: ")
	b.WriteString(path)
	b.WriteString("\n\n```\n")
	b.WriteString(content)
	b.WriteString("\n```\n\n")
	b.WriteString("Use ")
	b.WriteString(path)
	b.WriteString(" as the filename of each finding. For every issue also emit a plain-text line block of the form:\n")
	b.WriteString("Type: <short name>\nDescription: <one sentence>\nLine: <line number>\n\n")
	b.WriteString(responseContract)
	return b.String()
}
