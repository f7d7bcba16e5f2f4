package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/learnhub/internal/ai"
	"github.com/gin-gonic/gin"
)

type AIHandler struct {
	asker ai.Asker
}

func NewAIHandler(asker ai.Asker) *AIHandler {
	return &AIHandler{asker: asker}
}

// POST /ai/ask. The client carries its own timeout, so the request context
// is passed through as is.
func (h *AIHandler) Ask(ctx *gin.Context) {
	var req ai.AskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	answer, err := h.asker.Ask(ctx.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			RespondError(ctx, http.StatusServiceUnavailable, "ai_unavailable", "The study assistant is unavailable right now.", nil)
			return
		}

		slog.Default().WarnContext(ctx.Request.Context(), "ai.ask failed", "err", err)
		RespondError(ctx, http.StatusBadGateway, "ai_upstream_error", "The study assistant could not answer.", nil)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"answer": answer})
}
