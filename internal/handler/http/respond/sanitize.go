package respond

import "regexp"

var (
	// Discord webhook ids are public but the token after them is not.
	discordWebhookPattern = regexp.MustCompile(`(discord(?:app)?\.com/api/webhooks/[0-9]+/)[A-Za-z0-9._-]+`)
	slackWebhookPattern   = regexp.MustCompile(`(hooks\.slack\.com/services/)[A-Za-z0-9/_-]+`)
	userinfoPattern       = regexp.MustCompile(`://([^:/@\s]+):([^@/\s]+)@`)
)

// SanitizeError returns err's message with webhook tokens and URL
// passwords masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	msg = discordWebhookPattern.ReplaceAllString(msg, "${1}****")
	msg = slackWebhookPattern.ReplaceAllString(msg, "${1}****")
	msg = userinfoPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
