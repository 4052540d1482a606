// Package redact masks credentials in command lines before they are
// logged. It is a logging aid only: redaction is heuristic and the
// unredacted command is still carried on errors for diagnosis.
package redact

import "regexp"

const mask = "****"

// patterns cover the common ways secrets end up on a command line:
// password/token/key flags, VAR=value assignments, and bearer headers.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(--?(?:password|passwd|pass|token|api[-_]?key|secret|auth)[= ])\S+`),
	regexp.MustCompile(`(?i)([A-Z0-9_]*(?:PASSWORD|PASSWD|TOKEN|SECRET|APIKEY|API_KEY|CREDENTIALS)[A-Z0-9_]*=)\S+`),
	regexp.MustCompile(`(?i)(bearer )\S+`),
}

// Command returns command with recognized secret values replaced.
func Command(command string) string {
	for _, p := range patterns {
		command = p.ReplaceAllString(command, "${1}"+mask)
	}
	return command
}
