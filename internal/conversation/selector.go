package conversation

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Fallbacks used when a bank is empty.
const (
	FallbackPrompt   = "How is your meal?"
	FallbackResponse = "That's interesting!"
	FallbackFollowUp = "Tell me more about your meal."
)

// Keyword rule replies.
const (
	NegativeReply = "I'm sorry to hear that. Maybe next time will be better!"
	PositiveReply = "That's wonderful! Good food can really brighten your day."
	CookingReply  = "It sounds like you put effort into preparing that. Cooking can be so rewarding!"
)

type rule struct {
	keywords []string
	reply    string
}

// rules are checked in order; the first group with a substring match wins.
var rules = []rule{
	{keywords: []string{"not good", "bad", "terrible"}, reply: NegativeReply},
	{keywords: []string{"delicious", "good", "tasty"}, reply: PositiveReply},
	{keywords: []string{"recipe", "cook", "made"}, reply: CookingReply},
}

// Source picks an index in [0, n). *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// Selector produces companion lines. It is safe for concurrent use.
type Selector struct {
	bank Bank

	mu  sync.Mutex
	rnd Source
}

// NewSelector returns a selector drawing from bank. A nil src uses a
// time-seeded generator.
func NewSelector(bank Bank, src Source) *Selector {
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{bank: bank, rnd: src}
}

// NewSeeded returns a selector whose choices are reproducible for a seed.
func NewSeeded(bank Bank, seed int64) *Selector {
	return NewSelector(bank, rand.New(rand.NewSource(seed)))
}

// NextPrompt returns a proactive question from the prompt bank.
func (s *Selector) NextPrompt() string {
	return s.pick(s.bank.Prompts, FallbackPrompt)
}

// Respond maps a user utterance to a reply. Keyword groups are matched as
// plain substrings of the lower-cased input, so "badge" counts as "bad".
func (s *Selector) Respond(userText string) string {
	lower := strings.ToLower(userText)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.reply
			}
		}
	}
	resp := s.pick(s.bank.Responses, FallbackResponse)
	follow := s.pick(s.bank.FollowUps, FallbackFollowUp)
	return resp + " " + follow
}

func (s *Selector) pick(options []string, fallback string) string {
	if len(options) == 0 {
		return fallback
	}
	s.mu.Lock()
	i := s.rnd.Intn(len(options))
	s.mu.Unlock()
	return options[i]
}
