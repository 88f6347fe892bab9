package automation

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// SendStatus reports what happened to a generated reply.
type SendStatus string

const (
	SendSent         SendStatus = "sent"
	SendNotAttempted SendStatus = "not-attempted"
	SendFailed       SendStatus = "send-failed"
)

// Rule maps a keyword set to a reply template. Lower priority values
// are evaluated first.
type Rule struct {
	ID       string   `mapstructure:"id" json:"id"`
	Priority int      `mapstructure:"priority" json:"priority"`
	Keywords []string `mapstructure:"keywords" json:"keywords"`
	Reply    string   `mapstructure:"reply" json:"reply"`
}

// Outcome is the result of classifying one message body.
type Outcome struct {
	RuleID        string     `json:"rule_id,omitempty"`
	Matched       bool       `json:"matched"`
	Reply         string     `json:"reply"`
	SendAttempted bool       `json:"send_attempted"`
	SendStatus    SendStatus `json:"send_status"`
}

// Engine classifies inbound text against an immutable rule table.
type Engine struct {
	rules        []Rule
	defaultReply string
}

// NewEngine validates the rule table and freezes it in evaluation order.
// Rules sharing a priority keep their declaration order.
func NewEngine(rules []Rule, defaultReply string) (*Engine, error) {
	if len(rules) == 0 {
		return nil, errors.New("automation: rule table is empty")
	}

	seen := make(map[string]struct{}, len(rules))
	frozen := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if r.ID == "" {
			return nil, fmt.Errorf("automation: rule %d has no id", i)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("automation: duplicate rule id %q", r.ID)
		}
		seen[r.ID] = struct{}{}

		if r.Reply == "" {
			return nil, fmt.Errorf("automation: rule %q has an empty reply", r.ID)
		}
		keywords := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			kw = normalize(kw)
			if kw == "" {
				return nil, fmt.Errorf("automation: rule %q has an empty keyword", r.ID)
			}
			keywords = append(keywords, kw)
		}
		if len(keywords) == 0 {
			return nil, fmt.Errorf("automation: rule %q has no keywords", r.ID)
		}
		r.Keywords = keywords
		frozen = append(frozen, r)
	}

	slices.SortStableFunc(frozen, func(a, b Rule) int {
		return cmp.Compare(a.Priority, b.Priority)
	})

	return &Engine{rules: frozen, defaultReply: defaultReply}, nil
}

// Classify returns the reply of the first rule whose keyword occurs in
// the message, or the default reply when nothing matches.
func (e *Engine) Classify(body string) Outcome {
	text := normalize(body)

	for _, r := range e.rules {
		if matchAny(text, r.Keywords) {
			return Outcome{
				RuleID:     r.ID,
				Matched:    true,
				Reply:      r.Reply,
				SendStatus: SendNotAttempted,
			}
		}
	}

	return Outcome{
		Reply:      e.defaultReply,
		SendStatus: SendNotAttempted,
	}
}

// Rules returns the table in evaluation order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	for i, r := range e.rules {
		r.Keywords = slices.Clone(r.Keywords)
		out[i] = r
	}
	return out
}

func (e *Engine) DefaultReply() string {
	return e.defaultReply
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func matchAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
