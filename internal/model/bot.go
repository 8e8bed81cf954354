package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBotDoesNotExist = errors.New("bot does not exist")
)

type BotStatus string

const (
	BotStatusActive = BotStatus("Active")
	BotStatusIdle   = BotStatus("Idle")
	BotStatusError  = BotStatus("Error")
)

func ParseBotStatus(s string) BotStatus {
	switch strings.ToLower(s) {
	case "active":
		return BotStatusActive
	case "error":
		return BotStatusError
	default:
		return BotStatusIdle
	}
}

type Bot struct {
	BotID        uuid.UUID
	Name         string
	Type         string
	Persona      Persona
	Status       BotStatus
	LastActivity time.Time
}

// NewBot resolves the persona from the type label once, at construction.
func NewBot(name, botType string, status BotStatus, now time.Time) Bot {
	if strings.TrimSpace(botType) == "" {
		botType = PersonaGeneric.String()
	}
	return Bot{
		BotID:        uuid.New(),
		Name:         name,
		Type:         botType,
		Persona:      ParsePersona(botType),
		Status:       status,
		LastActivity: now,
	}
}

func (b Bot) Greeting() string {
	return fmt.Sprintf("Hello! I'm %s. I can help you with %s related tasks.", b.Name, strings.ToLower(b.Type))
}
