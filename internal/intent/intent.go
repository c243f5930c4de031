package intent

import (
	"strings"
	"unicode/utf8"
)

// Label is one of the closed set of support categories.
type Label string

const (
	Reservation     Label = "reservation"
	Pricing         Label = "pricing"
	Usage           Label = "usage"
	Troubleshooting Label = "troubleshooting"
	Account         Label = "account"
	Greeting        Label = "greeting"
	Thanks          Label = "thanks"
	Other           Label = "other"
)

// All lists every label in a stable order.
var All = []Label{Reservation, Pricing, Usage, Troubleshooting, Account, Greeting, Thanks, Other}

// aliases maps the category names the remote prompt is allowed to emit
// (Korean and English) to labels.
var aliases = map[string]Label{
	"예약_문의": Reservation,
	"요금_문의": Pricing,
	"이용_방법": Usage,
	"문제_해결": Troubleshooting,
	"계정_관리": Account,
	"인사":    Greeting,
	"감사":    Thanks,
	"기타_문의": Other,
}

func (l Label) String() string { return string(l) }

// Valid reports whether l belongs to the closed set.
func (l Label) Valid() bool {
	for _, v := range All {
		if l == v {
			return true
		}
	}
	return false
}

// Parse maps free text to a label. Anything unrecognised is Other.
func Parse(s string) Label {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`.。 ")
	if s == "" {
		return Other
	}
	if l, ok := aliases[s]; ok {
		return l
	}
	l := Label(strings.ToLower(s))
	if l.Valid() {
		return l
	}
	// models sometimes answer "분류: 요금_문의" or "intent: pricing"
	if i := strings.LastIndexAny(s, ":："); i >= 0 {
		_, sz := utf8.DecodeRuneInString(s[i:])
		if i+sz < len(s) {
			return Parse(s[i+sz:])
		}
	}
	return Other
}
