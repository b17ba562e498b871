package connection

type (
	Platform    string
	Protocol    string
	CommandType string
)

const (
	PlatformCiscoFTD Platform = "cisco_ftd"

	ProtocolSSH     Protocol = "ssh"
	ProtocolScrapli Protocol = "scrapli"

	CommandTypeCommands         CommandType = "commands"
	CommandTypeInteractiveEvent CommandType = "interactive_event"
	CommandTypeSendOnly         CommandType = "send_only"
)
