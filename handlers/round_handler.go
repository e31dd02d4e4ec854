package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/swiss-tournament/brackets"
	"github.com/Dosada05/swiss-tournament/services"
)

type RoundHandler struct {
	pairingService services.PairingService
}

func NewRoundHandler(ps services.PairingService) *RoundHandler {
	return &RoundHandler{pairingService: ps}
}

// PairNext godoc
// @Summary Pair the next Swiss round
// @Description Pairs players by win bucket, avoiding rematches where possible. An odd field gives one bye to the lowest-ranked player without one.
// @Tags rounds
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Round in progress, all rounds paired or bye pool exhausted"
// @Failure 422 {object} map[string]string "Fewer than two players"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/rounds [post]
func (h *RoundHandler) PairNext(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.pairingService.PairNextRound(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"round": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Get godoc
// @Summary Get the pairings of a round
// @Tags rounds
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param round path int true "Round number"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /tournaments/{tournamentID}/rounds/{round} [get]
func (h *RoundHandler) Get(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	round, err := getIDFromURL(r, "round")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.pairingService.GetRound(r.Context(), tournamentID, round)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"round": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RoundsRequired godoc
// @Summary Number of Swiss rounds needed for a field size
// @Tags rounds
// @Produce json
// @Param players query int true "Player count"
// @Success 200 {object} map[string]int
// @Failure 422 {object} map[string]string
// @Router /rounds-required [get]
func (h *RoundHandler) RoundsRequired(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("players")
	if raw == "" {
		badRequestResponse(w, r, errors.New("players query parameter is required"))
		return
	}
	players, err := strconv.Atoi(raw)
	if err != nil {
		badRequestResponse(w, r, errors.New("invalid players query parameter"))
		return
	}

	rounds, err := brackets.RoundsRequired(players)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players, "rounds": rounds}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
