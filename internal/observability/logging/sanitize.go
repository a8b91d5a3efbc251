package logging

import "regexp"

var (
	// Slack: https://hooks.slack.com/services/T000/B000/<secret>
	slackWebhookPattern = regexp.MustCompile(`(hooks\.slack\.com/services/[^/\s]+/[^/\s]+/)[A-Za-z0-9]+`)
	// Discord: https://discord.com/api/webhooks/<id>/<token>
	discordWebhookPattern = regexp.MustCompile(`(discord(?:app)?\.com/api/webhooks/[0-9]+/)[A-Za-z0-9_\-]+`)

	// Password inside a DSN
	dbPasswordPattern = regexp.MustCompile(`://([^:/@\s]+):([^@\s]+)@`)
)

// SanitizeError returns err's message with webhook tokens and DSN passwords masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error())
}

// SanitizeString masks webhook tokens and DSN passwords in s.
func SanitizeString(s string) string {
	s = slackWebhookPattern.ReplaceAllString(s, "${1}****")
	s = discordWebhookPattern.ReplaceAllString(s, "${1}****")
	s = dbPasswordPattern.ReplaceAllString(s, "://$1:****@")
	return s
}
