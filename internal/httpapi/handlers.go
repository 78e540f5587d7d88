package httpapi

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/dancras/tv-quiz-party/internal/auth"
	"github.com/dancras/tv-quiz-party/internal/engine"
	"github.com/dancras/tv-quiz-party/internal/hub"
	"github.com/dancras/tv-quiz-party/internal/lobby"
	"github.com/dancras/tv-quiz-party/internal/profile"
)

// Broadcast payloads, field names matching the subscription stream schema.
type userEventPayload struct {
	UserID string       `json:"user_id"`
	Lobby  *lobby.Lobby `json:"lobby"`
}

type answerReceivedPayload struct {
	UserID        string `json:"user_id"`
	QuestionIndex int    `json:"question_index"`
	Answer        string `json:"answer"`
}

// userID is set by the auth middleware on every route that reaches a
// handler.
func userID(r *http.Request) string {
	id, _ := auth.UserID(r.Context())
	return id
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Handshake gives the caller a credential cookie, reusing a still-valid one.
func (api *API) Handshake(w http.ResponseWriter, r *http.Request) {
	var id string
	if c, err := r.Cookie(auth.TokenCookie); err == nil {
		id, _ = api.auth.Authenticate(c.Value)
	}
	if id == "" {
		token, issued, err := api.auth.Issue()
		if err != nil {
			api.log.Error("issue token", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		id = issued
		http.SetCookie(w, &http.Cookie{
			Name:     auth.TokenCookie,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	writeJSON(w, http.StatusOK, map[string]string{"user_id": id})
}

func (api *API) CreateLobby(w http.ResponseWriter, r *http.Request) {
	host := api.profiles.Get(userID(r))
	lb := api.store.Create(host)
	writeLinked(w, http.StatusCreated, "/lobby/"+lb.ID, lb)
}

type joinLobbyRequest struct {
	JoinCode string `json:"join_code"`
}

func (api *API) JoinLobby(w http.ResponseWriter, r *http.Request) {
	var req joinLobbyRequest
	if !decode(w, r, &req) {
		return
	}
	if req.JoinCode == "" {
		writeError(w, http.StatusBadRequest, "join_code is required")
		return
	}

	id := userID(r)
	p := api.profiles.Get(id)
	lb, err := api.store.Update(req.JoinCode, func(l *lobby.Lobby) error {
		return engine.AddUser(l, p)
	})
	if err != nil {
		api.writeDomainError(w, err)
		return
	}

	api.hub.Publish(lb.ID, hub.EventUserJoined, userEventPayload{UserID: id, Lobby: lb})
	writeLinked(w, http.StatusOK, "/lobby/"+lb.ID, lb)
}

func (api *API) GetLobby(w http.ResponseWriter, r *http.Request) {
	api.readLobby(w, chi.URLParam(r, "lobby_id"))
}

func (api *API) GetLobbyByCode(w http.ResponseWriter, r *http.Request) {
	api.readLobby(w, chi.URLParam(r, "join_code"))
}

func (api *API) readLobby(w http.ResponseWriter, idOrCode string) {
	lb, err := api.store.Read(idOrCode)
	if err != nil {
		api.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

// ExitLobby removes the caller from the lobby. The host leaving closes the
// whole lobby for everyone.
func (api *API) ExitLobby(w http.ResponseWriter, r *http.Request) {
	lobbyID := chi.URLParam(r, "lobby_id")
	id := userID(r)

	lb, err := api.store.Read(lobbyID)
	if err != nil {
		api.writeDomainError(w, err)
		return
	}

	if lb.HostID == id {
		// Delete before closing the hub so no new subscription can slip in
		// against a lobby that is about to vanish and idle unreleased.
		if err := api.store.Delete(lb.ID); err != nil {
			api.writeDomainError(w, err)
			return
		}
		api.hub.CloseLobby(lb.ID)
	} else {
		updated, err := api.store.Update(lb.ID, func(l *lobby.Lobby) error {
			if _, ok := l.Users[id]; !ok {
				return errNotMember
			}
			engine.RemoveUser(l, id)
			return nil
		})
		if err != nil {
			api.writeDomainError(w, err)
			return
		}
		api.hub.Publish(lb.ID, hub.EventUserExited, userEventPayload{UserID: id, Lobby: updated})
		api.hub.ReleaseUser(lb.ID, id)
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

func (api *API) StartRound(w http.ResponseWriter, r *http.Request) {
	lb, err := api.store.Update(chi.URLParam(r, "lobby_id"), func(l *lobby.Lobby) error {
		_, err := engine.StartRound(l, api.bank)
		return err
	})
	if err != nil {
		api.writeDomainError(w, err)
		return
	}

	api.hub.Publish(lb.ID, hub.EventRoundStarted, lb.Round)
	writeJSON(w, http.StatusOK, lb.Round)
}

type startQuestionRequest struct {
	QuestionIndex *int `json:"question_index"`
}

func (api *API) StartQuestion(w http.ResponseWriter, r *http.Request) {
	var req startQuestionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.QuestionIndex == nil || *req.QuestionIndex < 0 {
		writeError(w, http.StatusBadRequest, "question_index is required and must not be negative")
		return
	}

	var cq lobby.CurrentQuestion
	lb, err := api.store.Update(chi.URLParam(r, "lobby_id"), func(l *lobby.Lobby) error {
		q, err := engine.StartQuestion(l, *req.QuestionIndex, api.cfg.QuestionGrace())
		if err != nil {
			return err
		}
		cq = *q
		return nil
	})
	if err != nil {
		api.writeDomainError(w, err)
		return
	}

	api.hub.Publish(lb.ID, hub.EventQuestionStarted, cq)
	writeJSON(w, http.StatusOK, cq)
}

type answerQuestionRequest struct {
	QuestionIndex *int `json:"question_index"`
	Answer        any  `json:"answer"`
}

func (api *API) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	var req answerQuestionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.QuestionIndex == nil {
		writeError(w, http.StatusBadRequest, "question_index is required")
		return
	}
	answer, err := stringifyAnswer(req.Answer)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := userID(r)
	lb, err := api.store.Update(chi.URLParam(r, "lobby_id"), func(l *lobby.Lobby) error {
		if _, ok := l.Users[id]; !ok {
			return errNotMember
		}
		return engine.AnswerQuestion(l, id, *req.QuestionIndex, answer)
	})
	if err != nil {
		api.writeDomainError(w, err)
		return
	}

	api.hub.Publish(lb.ID, hub.EventAnswerReceived, answerReceivedPayload{
		UserID:        id,
		QuestionIndex: *req.QuestionIndex,
		Answer:        answer,
	})
	writeJSON(w, http.StatusOK, struct{}{})
}

type endQuestionRequest struct {
	QuestionIndex *int `json:"question_index"`
}

func (api *API) EndQuestion(w http.ResponseWriter, r *http.Request) {
	var req endQuestionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.QuestionIndex == nil {
		writeError(w, http.StatusBadRequest, "question_index is required")
		return
	}

	var res engine.EndResult
	lb, err := api.store.Update(chi.URLParam(r, "lobby_id"), func(l *lobby.Lobby) error {
		var err error
		res, err = engine.EndQuestion(l, *req.QuestionIndex)
		return err
	})
	if err != nil {
		api.writeDomainError(w, err)
		return
	}

	api.hub.Publish(lb.ID, hub.EventLeaderboardUpdated, res.Leaderboard)
	if res.RoundEnded {
		api.hub.Publish(lb.ID, hub.EventRoundEnded, res.Round)
	}
	writeJSON(w, http.StatusOK, res.Leaderboard)
}

// JoinCodeQR renders the lobby's join code as a QR image so the host can
// put it on a shared screen.
func (api *API) JoinCodeQR(w http.ResponseWriter, r *http.Request) {
	lb, err := api.store.Read(chi.URLParam(r, "lobby_id"))
	if err != nil {
		api.writeDomainError(w, err)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	target := fmt.Sprintf("%s://%s/?join_code=%s", scheme, r.Host, lb.JoinCode)

	png, err := qrcode.Encode(target, qrcode.Medium, 256)
	if err != nil {
		api.log.Error("encode qr", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

type updateProfileRequest struct {
	DisplayName  string `json:"display_name"`
	ImageDataURL string `json:"image_data_url"`
}

func (api *API) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !decode(w, r, &req) {
		return
	}
	name := html.EscapeString(strings.TrimSpace(req.DisplayName))
	if name == "" {
		writeError(w, http.StatusBadRequest, "display_name is required")
		return
	}

	p := profile.Profile{ID: userID(r), DisplayName: name}
	if req.ImageDataURL != "" {
		_, encoded, ok := strings.Cut(req.ImageDataURL, ",")
		if !ok {
			writeError(w, http.StatusUnprocessableEntity, "image_data_url must be a data URL")
			return
		}
		img, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "image_data_url is not valid base64")
			return
		}
		filename := uuid.NewString() + ".png"
		if err := os.WriteFile(filepath.Join(api.cfg.ProfileImagesDir, filename), img, 0o644); err != nil {
			api.log.Error("write profile image", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		p.ImageFilename = filename
	}

	if err := api.profiles.Put(p); err != nil {
		api.log.Error("store profile", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (api *API) ProfileImage(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" || filename != filepath.Base(filename) {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}
	http.ServeFile(w, r, filepath.Join(api.cfg.ProfileImagesDir, filename))
}

// stringifyAnswer normalizes whatever JSON scalar the client sent; answers
// are compared as strings.
func stringifyAnswer(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		return "", errors.New("answer must be a string, number or boolean")
	}
}
