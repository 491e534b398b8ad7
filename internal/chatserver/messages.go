package chatserver

// Literal protocol strings, carried over unchanged from the protocol this
// server implements so existing clients need no changes.
const (
	msgWelcome           = "Welcome to C2hat!"
	msgNickPrompt        = "Please enter a nickname:"
	msgAuthTimeout       = "Authentication timeout expired!"
	msgIdleTimeout       = "Connection timed out, you've been disconnected!"
	msgCapacityExceeded  = "connection limits reached"
	msgInvalidNickname   = "Nicknames must start with a letter and contain 2-15 latin characters and !@#$%&"
	msgAuthFailed        = "Authentication failed"
	msgJustJoinedTheChat = "just joined the chat"
	msgJustLeftTheChat   = "just left the chat"
)

func msgHello(nickname string) string {
	return "Hello " + nickname + "!"
}
