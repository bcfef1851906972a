package linguatests

import "github.com/launchdarkly/go-sdk-common/v3/ldvalue"

// scratch holds the values that test cases pass to later cases within one run. Cases run one at a
// time, so it needs no locking.
type scratch struct {
	userID    ldvalue.OptionalString
	token     ldvalue.OptionalString
	sessionID ldvalue.OptionalString
	roomCode  ldvalue.OptionalString
}

const (
	depUserID    = "user ID"
	depSessionID = "translation session ID"
	depRoomCode  = "room code"
)
