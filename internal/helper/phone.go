package helper

import (
	"strings"
)

// ExtractPhoneFromJID strips the server part and device suffix of a JID.
func ExtractPhoneFromJID(jid string) string {
	// "6285148107612:43@s.whatsapp.net" -> "6285148107612"
	atSplit := strings.SplitN(jid, "@", 2)
	if len(atSplit) == 0 {
		return jid
	}
	beforeAt := atSplit[0]
	colonSplit := strings.SplitN(beforeAt, ":", 2)
	return colonSplit[0]
}

// IsGroupJID reports whether the chat is a group (@g.us).
func IsGroupJID(jid string) bool {
	return strings.HasSuffix(jid, "@g.us")
}
