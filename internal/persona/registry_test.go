package persona

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamvkosarev/bot-console/internal/model"
)

func TestRegistry_EveryPersonaHasProfile(t *testing.T) {
	registry := NewRegistry()

	for _, p := range model.Personas {
		t.Run(p.String(), func(t *testing.T) {
			profile := registry.Profile(p)
			assert.Equal(t, p, profile.Persona)
			assert.True(t, strings.HasPrefix(profile.Instruction, basePrompt))
			assert.NotEmpty(t, profile.Default)
			for _, rule := range profile.Rules {
				assert.NotEmpty(t, rule.Keywords)
				require.NotNil(t, rule.Reply)
			}
		})
	}
}

func TestRegistry_UnknownPersonaIsGeneric(t *testing.T) {
	registry := NewRegistry()

	profile := registry.Profile(model.Persona(42))

	assert.Equal(t, model.PersonaGeneric, profile.Persona)
	assert.Contains(t, profile.Instruction, "general business assistant")
}

func TestRegistry_InstructionListsDuties(t *testing.T) {
	registry := NewRegistry()

	support := registry.Instruction(model.PersonaSupport)
	assert.Contains(t, support, "technical support specialist")
	assert.Contains(t, support, "\n- Password resets and security")
	assert.Contains(t, support, "You are a technical support specialist. You help users with:\n- Account issues")

	hr := registry.Instruction(model.PersonaHR)
	assert.Contains(t, hr, "maintain confidentiality")
	assert.Contains(t, hr, "You are an HR assistant. You help employees with:\n- Leave requests")

	finance := registry.Instruction(model.PersonaFinance)
	assert.Contains(t, finance, "You are a finance assistant. You help with:\n- ")
}

func TestRule_Matches(t *testing.T) {
	rule := Rule{Keywords: []string{"leave", "vacation"}}

	assert.True(t, rule.Matches("i want to request vacation"))
	assert.True(t, rule.Matches("annual leave please"))
	assert.False(t, rule.Matches("nothing relevant"))
}

func TestOverrides(t *testing.T) {
	overrides := NewRegistry().Overrides()

	assert.Len(t, overrides.Greetings, 3)
	assert.True(t, ContainsAny("see you later", overrides.FarewellKeywords))
	assert.True(t, ContainsAny("thanks a lot", overrides.ThanksKeywords))
}
