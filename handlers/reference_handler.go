package handlers

import (
	"net/http"

	"github.com/Dosada05/worldcup-simulator/models"
)

// ReferenceHandler serves the static tournament roster.
type ReferenceHandler struct {
	teams  []models.Team
	groups []models.Group
}

func NewReferenceHandler(teams []models.Team, groups []models.Group) *ReferenceHandler {
	return &ReferenceHandler{teams: teams, groups: groups}
}

// ListTeams godoc
// @Summary Список команд
// @Tags reference
// @Produce json
// @Success 200 {object} map[string]interface{} "teams"
// @Router /teams [get]
func (h *ReferenceHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": h.teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListGroups godoc
// @Summary Список групп с составами
// @Tags reference
// @Produce json
// @Success 200 {object} map[string]interface{} "groups"
// @Router /groups [get]
func (h *ReferenceHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, http.StatusOK, jsonResponse{"groups": h.groups}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
