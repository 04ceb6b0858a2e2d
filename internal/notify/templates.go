package notify

import (
	"fmt"

	"horizon/internal/core"
)

// TemplateArgs carries the per-member values substituted into a message
// template.
type TemplateArgs struct {
	Name       string
	Amount     string
	Balance    string
	MissedDays int
	AdminText  string
}

// RenderMessage produces the fixed per-kind message text.
func RenderMessage(kind core.MessageKind, args TemplateArgs) string {
	switch kind {
	case core.MessageMissedContribution:
		return fmt.Sprintf(
			"Hi %s! You have %d day%s to catch up on. Click on any past date in your calendar on the Horizon Unit app to add a contribution. No penalties - contribute at your own pace!",
			args.Name, args.MissedDays, plural(args.MissedDays))
	case core.MessageSuccessfulContribution:
		return fmt.Sprintf(
			"Great! Your contribution of KES %s has been recorded. Your new savings balance is KES %s. Keep saving! - Horizon Unit",
			args.Amount, args.Balance)
	case core.MessageAdminNotification:
		return fmt.Sprintf("Message from Horizon Unit Admin: %s", args.AdminText)
	}
	return ""
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
