package domain

// TargetKind selects how a push target resolves to tokens
type TargetKind int

const (
	TargetToken TargetKind = iota
	TargetUser
	TargetBroadcast
)

// Target is the audience of one push request
type Target struct {
	Kind   TargetKind
	Token  string
	UserID int64
}

// TokenTarget addresses a single device token
func TokenTarget(token string) Target {
	return Target{Kind: TargetToken, Token: token}
}

// UserTarget addresses every active device of a user
func UserTarget(userID int64) Target {
	return Target{Kind: TargetUser, UserID: userID}
}

// BroadcastTarget addresses every active device
func BroadcastTarget() Target {
	return Target{Kind: TargetBroadcast}
}

func (k TargetKind) String() string {
	switch k {
	case TargetToken:
		return "token"
	case TargetUser:
		return "user"
	case TargetBroadcast:
		return "broadcast"
	default:
		return "unknown"
	}
}

// DispatchResult is the aggregate outcome of one fan-out
type DispatchResult struct {
	Sent       int
	Failed     int
	DeadTokens []string
}

// SendResult is what callers of a user or broadcast push get back
type SendResult struct {
	Sent        int `json:"sent"`
	Failed      int `json:"failed"`
	RemovedDead int `json:"removedDead"`
}
