package usecase

import (
	"math/rand/v2"
	"strings"

	"github.com/iamvkosarev/bot-console/internal/model"
	"github.com/iamvkosarev/bot-console/internal/persona"
)

type globalRand struct{}

func (globalRand) IntN(n int) int {
	return rand.IntN(n)
}

type FallbackUsecase struct {
	personas *persona.Registry
	rand     persona.Rand
}

// NewFallbackUsecase uses the process-wide random source when r is nil.
func NewFallbackUsecase(personas *persona.Registry, r persona.Rand) *FallbackUsecase {
	if r == nil {
		r = globalRand{}
	}
	return &FallbackUsecase{
		personas: personas,
		rand:     r,
	}
}

// Reply produces the canned answer for the latest user message. Prior turns are
// part of the signature so callers hand over the same inputs as the remote
// path, but only the latest message is matched.
func (f *FallbackUsecase) Reply(p model.Persona, latestUserMessage string, _ []model.Message) string {
	lowerMessage := strings.ToLower(latestUserMessage)
	overrides := f.personas.Overrides()

	switch {
	case persona.ContainsAny(lowerMessage, overrides.GreetingKeywords):
		return overrides.Greetings[f.rand.IntN(len(overrides.Greetings))]
	case persona.ContainsAny(lowerMessage, overrides.ThanksKeywords):
		return overrides.Thanks
	case persona.ContainsAny(lowerMessage, overrides.FarewellKeywords):
		return overrides.Farewell
	}

	profile := f.personas.Profile(p)
	for _, rule := range profile.Rules {
		if rule.Matches(lowerMessage) {
			return rule.Reply(f.rand)
		}
	}
	return profile.Default
}
