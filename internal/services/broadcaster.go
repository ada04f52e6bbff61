package services

import "telecasino-dice/internal/models"

// Broadcaster pushes resolved rounds to live listeners. Implementations
// must not block the round.
type Broadcaster interface {
	BroadcastRoundResolved(result *models.RoundResult)
}
