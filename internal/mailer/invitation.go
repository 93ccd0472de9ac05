package mailer

import (
	"fmt"
	"html"

	"projecthub-api/internal/models"
)

// InvitationMessage renders the email inviting inv.Email to teamName.
// acceptURL is the page where the invitee accepts or declines.
func InvitationMessage(inv *models.TeamInvitation, teamName, inviterName, acceptURL string) Message {
	if inviterName == "" {
		inviterName = "A teammate"
	}
	text := fmt.Sprintf(
		"%s invited you to join %s as %s.\n\nAccept the invitation: %s\n\nThe link expires on %s.",
		inviterName, teamName, inv.Role, acceptURL, inv.ExpiresAt.Format("Jan 2, 2006"),
	)
	body := fmt.Sprintf(
		"<p>%s invited you to join <strong>%s</strong> as %s.</p><p><a href=\"%s\">Accept the invitation</a></p><p>The link expires on %s.</p>",
		html.EscapeString(inviterName), html.EscapeString(teamName), inv.Role,
		html.EscapeString(acceptURL), inv.ExpiresAt.Format("Jan 2, 2006"),
	)
	return Message{
		ToEmail: inv.Email,
		Subject: fmt.Sprintf("You're invited to join %s", teamName),
		Text:    text,
		HTML:    body,
	}
}
