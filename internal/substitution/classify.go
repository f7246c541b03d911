package substitution

import "strings"

// Reply is the classification of a customer's free-text answer.
type Reply int

const (
	// ReplyUnrecognized is the default: no automatic effect, staff review only.
	ReplyUnrecognized Reply = iota
	ReplyApprove
	ReplyReject
)

func (r Reply) String() string {
	switch r {
	case ReplyApprove:
		return "approve"
	case ReplyReject:
		return "reject"
	default:
		return "unrecognized"
	}
}

var approvals = map[string]bool{
	"yes":     true,
	"y":       true,
	"approve": true,
	"ok":      true,
}

var rejections = map[string]bool{
	"no":     true,
	"n":      true,
	"reject": true,
	"cancel": true,
}

// Classify maps an inbound message body to a Reply. It is total: any input,
// including empty or garbage text, yields ReplyUnrecognized rather than an
// error. For a real-money decision silence beats a wrong guess.
func Classify(text string) Reply {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.TrimRight(normalized, ".!?")
	normalized = strings.TrimSpace(normalized)

	switch {
	case approvals[normalized]:
		return ReplyApprove
	case rejections[normalized]:
		return ReplyReject
	default:
		return ReplyUnrecognized
	}
}
