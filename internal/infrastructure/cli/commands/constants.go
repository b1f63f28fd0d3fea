package commands

// Messages
const (
	MsgNoRecords       = "No queries recorded yet."
	MsgNoSearchResults = "No matching queries."
	MsgNothingToClean  = "Nothing to clean."
	MsgCleanCancelled  = "Clean cancelled."
	MsgRulesCancelled  = "Rules unchanged."
	MsgNoGenerator     = "No cached command matched and generator.command is not configured."
)
