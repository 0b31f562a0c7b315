package desktop

import "strings"

// File and URL field codes. The launcher never passes arguments, so they
// are dropped rather than expanded.
var fieldCodes = []string{"%U", "%F", "%u", "%f"}

// CleanExec removes field codes from an Exec command and rejoins the
// remaining tokens with single spaces.
func CleanExec(exec string) string {
	fields := strings.Fields(exec)
	result := make([]string, 0, len(fields))
	for _, field := range fields {
		for _, code := range fieldCodes {
			field = strings.ReplaceAll(field, code, "")
		}
		if field != "" {
			result = append(result, field)
		}
	}
	return strings.Join(result, " ")
}

// CleanExec returns the launchable command line of the entry
func (e Entry) CleanExec() string {
	return CleanExec(e.Exec)
}
