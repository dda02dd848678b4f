package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"clientx/internal/services"
)

type SearchHandler struct {
	service services.SearchService
}

func NewSearchHandler(service services.SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// @Summary      Global search
// @Description  Searches employees and tasks by keyword. Task visibility follows the caller's role.
// @Tags         Search
// @Produce      json
// @Param        q  query  string  false  "keyword"
// @Success      200  {object}  services.SearchResult
// @Router       /search [get]
func (h *SearchHandler) Global(c *gin.Context) {
	actor := getActor(c)
	keyword := c.Query("q")

	result, err := h.service.Global(c.Request.Context(), actor, keyword)
	if err != nil {
		log.Printf("[search][err] user=%d q=%q: %v", actor.ID, keyword, err)
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
