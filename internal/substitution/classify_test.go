package substitution

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Reply
	}{
		{"yes", ReplyApprove},
		{"YES", ReplyApprove},
		{"  Yes!  ", ReplyApprove},
		{"y", ReplyApprove},
		{"ok", ReplyApprove},
		{"OK.", ReplyApprove},
		{"approve", ReplyApprove},

		{"no", ReplyReject},
		{"No thanks", ReplyUnrecognized}, // multi-word is never guessed
		{"N", ReplyReject},
		{"reject", ReplyReject},
		{"cancel", ReplyReject},
		{"NO!!!", ReplyReject},

		{"", ReplyUnrecognized},
		{"   ", ReplyUnrecognized},
		{"maybe", ReplyUnrecognized},
		{"yess", ReplyUnrecognized},
		{"yes please", ReplyUnrecognized},
		{"what is this about?", ReplyUnrecognized},
		{"👍", ReplyUnrecognized},
	}
	for _, tc := range tests {
		if got := Classify(tc.text); got != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestReplyString(t *testing.T) {
	if ReplyApprove.String() != "approve" || ReplyReject.String() != "reject" || ReplyUnrecognized.String() != "unrecognized" {
		t.Errorf("Reply strings wrong: %v %v %v", ReplyApprove, ReplyReject, ReplyUnrecognized)
	}
}
