// Package intents classifies user replies with an explicit phrase table,
// independently of how the language model read them.
package intents

import (
	"strings"
	"unicode"
)

type Signal string

const (
	DeclineExperience     Signal = "decline_experience"
	DeclineCertifications Signal = "decline_certifications"
	Affirmative           Signal = "affirmative"
	Negative              Signal = "negative"
)

type Topic string

// Match selects how a phrase is compared with the normalized reply.
type Match int

const (
	// Exact matches the whole reply.
	Exact Match = iota
	// Prefix matches the start of the reply at a word boundary.
	Prefix
	// Contains matches anywhere at word boundaries.
	Contains
)

// Rule maps a phrase to a Signal. A non-empty Topic restricts the rule to
// replies whose previous agent turn was about that topic.
type Rule struct {
	Signal Signal
	Phrase string
	Match  Match
	Topic  Topic
}

// Detector evaluates a rule table. It is immutable and safe for concurrent use.
type Detector struct {
	rules  []Rule
	topics map[Topic][]string
}

// NewDetector builds a Detector; phrases and keywords are normalized once.
func NewDetector(rules []Rule, topics map[Topic][]string) *Detector {
	d := &Detector{rules: make([]Rule, 0, len(rules)), topics: make(map[Topic][]string, len(topics))}
	for _, r := range rules {
		r.Phrase = Normalize(r.Phrase)
		if r.Phrase != "" {
			d.rules = append(d.rules, r)
		}
	}
	for t, kws := range topics {
		for _, kw := range kws {
			if kw = Normalize(kw); kw != "" {
				d.topics[t] = append(d.topics[t], kw)
			}
		}
	}
	return d
}

// Default returns a Detector over DefaultRules and DefaultTopics.
func Default() *Detector {
	return NewDetector(DefaultRules, DefaultTopics)
}

// Signals is the set of signals a reply raised.
type Signals map[Signal]bool

func (s Signals) Has(sig Signal) bool { return s[sig] }

// Detect returns every signal userText raises given the previous agent turn.
func (d *Detector) Detect(userText, prevAgentText string) Signals {
	text := Normalize(userText)
	out := Signals{}
	if text == "" {
		return out
	}
	prev := Normalize(prevAgentText)
	for _, r := range d.rules {
		if out[r.Signal] {
			continue
		}
		if r.Topic != "" && !d.about(prev, r.Topic) {
			continue
		}
		if matches(text, r.Phrase, r.Match) {
			out[r.Signal] = true
		}
	}
	return out
}

// Intent resolves a reply to a completion answer: Negative wins over
// Affirmative; "" when neither applies.
func (d *Detector) Intent(userText string) Signal {
	s := d.Detect(userText, "")
	switch {
	case s.Has(Negative):
		return Negative
	case s.Has(Affirmative):
		return Affirmative
	}
	return ""
}

// About reports whether text mentions any keyword of topic.
func (d *Detector) About(text string, topic Topic) bool {
	return d.about(Normalize(text), topic)
}

func (d *Detector) about(normalized string, topic Topic) bool {
	if normalized == "" {
		return false
	}
	for _, kw := range d.topics[topic] {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'", "´", "'")

// Normalize lowercases text, unifies apostrophes, drops punctuation other
// than apostrophes and collapses whitespace.
func Normalize(text string) string {
	text = apostrophes.Replace(strings.ToLower(text))
	var b strings.Builder
	space := false
	for _, r := range text {
		switch {
		case r == '\'' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}

func matches(text, phrase string, m Match) bool {
	switch m {
	case Exact:
		return text == phrase
	case Prefix:
		return strings.HasPrefix(text, phrase) && boundary(text, len(phrase))
	case Contains:
		for from := 0; from <= len(text)-len(phrase); {
			i := strings.Index(text[from:], phrase)
			if i < 0 {
				return false
			}
			start := from + i
			if (start == 0 || text[start-1] == ' ') && boundary(text, start+len(phrase)) {
				return true
			}
			from = start + 1
		}
	}
	return false
}

// boundary reports whether position i ends a word in normalized text.
func boundary(text string, i int) bool {
	return i >= len(text) || text[i] == ' '
}
