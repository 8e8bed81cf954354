package model

type ConversationState string

const (
	ConversationStateIdle              = ConversationState("idle")
	ConversationStateProbingRemote     = ConversationState("probing_remote")
	ConversationStateRemoteReady       = ConversationState("remote_ready")
	ConversationStateRemoteUnavailable = ConversationState("remote_unavailable")
	ConversationStateClosed            = ConversationState("closed")
)

type ConversationPhase string

const (
	ConversationPhaseComposing     = ConversationPhase("composing")
	ConversationPhaseAwaitingReply = ConversationPhase("awaiting_reply")
)

type RemoteAvailability string

const (
	RemoteAvailabilityUnknown     = RemoteAvailability("unknown")
	RemoteAvailabilityAvailable   = RemoteAvailability("available")
	RemoteAvailabilityUnavailable = RemoteAvailability("unavailable")
)

func (s ConversationState) Availability() RemoteAvailability {
	switch s {
	case ConversationStateRemoteReady:
		return RemoteAvailabilityAvailable
	case ConversationStateRemoteUnavailable:
		return RemoteAvailabilityUnavailable
	default:
		return RemoteAvailabilityUnknown
	}
}
