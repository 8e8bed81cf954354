package model

import "strings"

type Persona int8

const (
	PersonaGeneric = Persona(iota)
	PersonaSupport
	PersonaHR
	PersonaFinance
	PersonaSales
	PersonaMarketing
)

// Personas lists every persona in display order.
var Personas = []Persona{
	PersonaSupport,
	PersonaHR,
	PersonaFinance,
	PersonaSales,
	PersonaMarketing,
	PersonaGeneric,
}

// ParsePersona resolves a bot type label. Anything unrecognised, custom bots
// included, becomes the generic persona.
func ParsePersona(s string) Persona {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "support":
		return PersonaSupport
	case "hr":
		return PersonaHR
	case "finance":
		return PersonaFinance
	case "sales":
		return PersonaSales
	case "marketing":
		return PersonaMarketing
	default:
		return PersonaGeneric
	}
}

func (p Persona) String() string {
	switch p {
	case PersonaSupport:
		return "Support"
	case PersonaHR:
		return "HR"
	case PersonaFinance:
		return "Finance"
	case PersonaSales:
		return "Sales"
	case PersonaMarketing:
		return "Marketing"
	default:
		return "Generic"
	}
}
