package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"telecasino-dice/internal/lib/api/response"
	"telecasino-dice/internal/lib/logger/sl"
	"telecasino-dice/internal/middleware"
	"telecasino-dice/internal/models"
	"telecasino-dice/internal/services"
)

type DiceHandler struct {
	game *services.DiceGame
	log  *slog.Logger
}

func NewDiceHandler(game *services.DiceGame, log *slog.Logger) *DiceHandler {
	return &DiceHandler{
		game: game,
		log:  log,
	}
}

// PlayDice plays one round. The session id comes from the bearer token when
// auth is enabled and from the gameSessionId query parameter otherwise.
func (h *DiceHandler) PlayDice(c *gin.Context) {
	var req models.PlayRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Binding(err))
		return
	}

	wager, err := models.ParseWager(req.Wager)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid wager",
			"code":    models.CodeInvalidBet,
			"details": err.Error(),
		})
		return
	}

	bet, err := models.ParseBetType(req.BetArg)
	if err != nil {
		status, resp := response.FromError("Invalid bet type", err)
		c.JSON(status, resp)
		return
	}

	sessionID := req.GameSessionID
	if id, ok := middleware.SessionID(c); ok {
		sessionID = id
	}

	result, err := h.game.PlayRound(c.Request.Context(), wager, bet, sessionID)
	if err != nil {
		status, resp := response.FromError("Failed to play dice", err)
		if status >= http.StatusInternalServerError {
			h.log.Error("round failed",
				slog.String("bet_type", bet.String()),
				slog.Int64("session_id", sessionID),
				sl.Err(err),
			)
		}
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *DiceHandler) GetOdds(c *gin.Context) {
	entries := h.game.Odds().All()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"odds":    entries,
		"count":   len(entries),
		"wagers":  models.AllowedWagers,
	})
}

func Health(c *gin.Context) {
	c.String(http.StatusOK, "Healthy")
}

func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
