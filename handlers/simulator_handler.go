package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dosada05/worldcup-simulator/models"
	"github.com/Dosada05/worldcup-simulator/services"
)

// qualifyingPlaces is how many teams of each group reach the round of 16.
const qualifyingPlaces = 2

// SessionTokenIssuer выдаёт токен, дающий право менять счёт в сессии.
type SessionTokenIssuer interface {
	Issue(sessionID string) (string, error)
}

type SimulatorHandler struct {
	simulatorService services.SimulatorService
	tokens           SessionTokenIssuer
	teams            map[string]models.Team
	logger           *slog.Logger
}

func NewSimulatorHandler(ss services.SimulatorService, tokens SessionTokenIssuer, teams map[string]models.Team, logger *slog.Logger) *SimulatorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimulatorHandler{
		simulatorService: ss,
		tokens:           tokens,
		teams:            teams,
		logger:           logger,
	}
}

// StandingRow is one line of a group table as shown to clients.
type StandingRow struct {
	Position int    `json:"position"`
	TeamName string `json:"team_name"`
	models.TeamStanding
	Qualifies bool `json:"qualifies"`
}

// CreateSession godoc
// @Summary Создать сессию симуляции
// @Tags sessions
// @Description Создаёт новую независимую симуляцию и возвращает токен для изменения счёта.
// @Produce json
// @Success 201 {object} map[string]interface{} "session_id, token, state"
// @Failure 409 {object} map[string]string "Слишком много активных сессий"
// @Failure 500 {object} map[string]string "Внутренняя ошибка сервера"
// @Router /sessions [post]
func (h *SimulatorHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	info, err := h.simulatorService.CreateSession(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	token, err := h.tokens.Issue(info.SessionID)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"session_id": info.SessionID,
		"created_at": info.CreatedAt,
		"token":      token,
		"state":      info.Snapshot,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetSession godoc
// @Summary Получить состояние сессии
// @Tags sessions
// @Produce json
// @Param sessionID path string true "Session ID"
// @Success 200 {object} services.Snapshot
// @Failure 404 {object} map[string]string "Сессия не найдена"
// @Router /sessions/{sessionID} [get]
func (h *SimulatorHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getParamFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	snapshot, err := h.simulatorService.GetSnapshot(r.Context(), sessionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"state": snapshot}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetGroupStandings godoc
// @Summary Таблица группы
// @Tags groups
// @Description Возвращает отсортированную таблицу группы. Первые два места выходят в 1/8 финала.
// @Produce json
// @Param sessionID path string true "Session ID"
// @Param groupID path string true "Group ID (A-H)"
// @Success 200 {object} map[string]interface{} "standings"
// @Failure 404 {object} map[string]string "Сессия или группа не найдена"
// @Router /sessions/{sessionID}/groups/{groupID}/standings [get]
func (h *SimulatorHandler) GetGroupStandings(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getParamFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	groupID, err := getParamFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.simulatorService.GroupStandings(r.Context(), sessionID, groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	rows := make([]StandingRow, 0, len(standings))
	for i, st := range standings {
		rows = append(rows, StandingRow{
			Position:     i + 1,
			TeamName:     h.teams[st.TeamID].Name,
			TeamStanding: st,
			// Без сыгранных матчей команда в сетку не попадает.
			Qualifies: i < qualifyingPlaces && st.Played > 0,
		})
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"group": groupID, "standings": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListGroupMatches godoc
// @Summary Матчи группы
// @Tags groups
// @Produce json
// @Param sessionID path string true "Session ID"
// @Param groupID path string true "Group ID (A-H)"
// @Success 200 {object} map[string]interface{} "matches"
// @Failure 404 {object} map[string]string "Сессия или группа не найдена"
// @Router /sessions/{sessionID}/groups/{groupID}/matches [get]
func (h *SimulatorHandler) ListGroupMatches(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getParamFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	groupID, err := getParamFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.simulatorService.GroupMatches(r.Context(), sessionID, groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListKnockoutMatches godoc
// @Summary Матчи плей-офф
// @Tags knockout
// @Produce json
// @Param sessionID path string true "Session ID"
// @Param stage query string false "r16, quarter, semi, third или final"
// @Success 200 {object} map[string]interface{} "matches, champion"
// @Failure 404 {object} map[string]string "Сессия не найдена"
// @Failure 422 {object} map[string]string "Неизвестная стадия"
// @Router /sessions/{sessionID}/knockout [get]
func (h *SimulatorHandler) ListKnockoutMatches(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getParamFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stage := models.Stage(r.URL.Query().Get("stage"))

	matches, err := h.simulatorService.KnockoutMatches(r.Context(), sessionID, stage)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateGroupMatch godoc
// @Summary Изменить счёт матча группы
// @Tags matches
// @Accept json
// @Produce json
// @Param sessionID path string true "Session ID"
// @Param matchID path string true "Match ID (например, A1)"
// @Param body body services.UpdateScoreInput true "Счёт: null или пустая строка очищает значение"
// @Success 200 {object} map[string]interface{} "state"
// @Failure 400 {object} map[string]string "Не передано одно из полей счёта"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Токен выдан для другой сессии"
// @Failure 422 {object} map[string]string "Счёт вне диапазона 0-99"
// @Security BearerAuth
// @Router /sessions/{sessionID}/group-matches/{matchID} [put]
func (h *SimulatorHandler) UpdateGroupMatch(w http.ResponseWriter, r *http.Request) {
	h.updateMatch(w, r, h.simulatorService.UpdateGroupMatch)
}

// UpdateKnockoutMatch godoc
// @Summary Изменить счёт матча плей-офф
// @Tags matches
// @Accept json
// @Produce json
// @Param sessionID path string true "Session ID"
// @Param matchID path string true "Match ID (например, R16-1)"
// @Param body body services.UpdateScoreInput true "Счёт"
// @Success 200 {object} map[string]interface{} "state"
// @Failure 400 {object} map[string]string "Не передано одно из полей счёта"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 422 {object} map[string]string "Счёт вне диапазона 0-99"
// @Security BearerAuth
// @Router /sessions/{sessionID}/knockout-matches/{matchID} [put]
func (h *SimulatorHandler) UpdateKnockoutMatch(w http.ResponseWriter, r *http.Request) {
	h.updateMatch(w, r, h.simulatorService.UpdateKnockoutMatch)
}

type updateFunc func(ctx context.Context, sessionID, matchID string, input services.UpdateScoreInput) (*services.Snapshot, error)

func (h *SimulatorHandler) updateMatch(w http.ResponseWriter, r *http.Request, update updateFunc) {
	sessionID, err := getParamFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchID, err := getParamFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateScoreInput
	if err := readJSON(w, r, &input); err != nil {
		if errors.Is(err, services.ErrInvalidScore) {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		badRequestResponse(w, r, err)
		return
	}

	snapshot, err := update(r.Context(), sessionID, matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"state": snapshot}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResetSession godoc
// @Summary Сбросить симуляцию
// @Tags sessions
// @Produce json
// @Param sessionID path string true "Session ID"
// @Success 200 {object} map[string]interface{} "state"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 404 {object} map[string]string "Сессия не найдена"
// @Security BearerAuth
// @Router /sessions/{sessionID}/reset [post]
func (h *SimulatorHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getParamFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	snapshot, err := h.simulatorService.Reset(r.Context(), sessionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"state": snapshot}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ExportSession godoc
// @Summary Выгрузить снимок сетки в хранилище
// @Tags sessions
// @Produce json
// @Param sessionID path string true "Session ID"
// @Success 200 {object} storage.UploadResult
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 404 {object} map[string]string "Сессия не найдена"
// @Failure 503 {object} map[string]string "Хранилище не настроено"
// @Security BearerAuth
// @Router /sessions/{sessionID}/export [post]
func (h *SimulatorHandler) ExportSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getParamFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.simulatorService.ExportSnapshot(r.Context(), sessionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "snapshot export requested", slog.String("session_id", sessionID), slog.String("location", result.Location))
	if err := writeJSON(w, http.StatusOK, jsonResponse{"export": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListScoreHistory godoc
// @Summary Журнал изменений счёта
// @Tags sessions
// @Produce json
// @Param sessionID path string true "Session ID"
// @Success 200 {object} map[string]interface{} "edits"
// @Failure 404 {object} map[string]string "Сессия не найдена"
// @Failure 503 {object} map[string]string "База данных не настроена"
// @Router /sessions/{sessionID}/history [get]
func (h *SimulatorHandler) ListScoreHistory(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getParamFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	edits, err := h.simulatorService.ScoreHistory(r.Context(), sessionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"edits": edits}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
