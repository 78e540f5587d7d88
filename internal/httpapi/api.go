// Package httpapi is the transport layer: it translates HTTP requests into
// store, engine and hub calls and maps domain errors onto statuses.
package httpapi

import (
	"go.uber.org/zap"

	"github.com/dancras/tv-quiz-party/internal/auth"
	"github.com/dancras/tv-quiz-party/internal/config"
	"github.com/dancras/tv-quiz-party/internal/hub"
	"github.com/dancras/tv-quiz-party/internal/lobby"
	"github.com/dancras/tv-quiz-party/internal/profile"
	"github.com/dancras/tv-quiz-party/internal/questions"
)

type API struct {
	cfg      config.Config
	auth     *auth.Service
	profiles profile.Store
	store    *lobby.Store
	hub      *hub.Hub
	log      *zap.Logger
	bank     []questions.Question
}

func New(cfg config.Config, authSvc *auth.Service, profiles profile.Store, store *lobby.Store, h *hub.Hub, log *zap.Logger) *API {
	return &API{
		cfg:      cfg,
		auth:     authSvc,
		profiles: profiles,
		store:    store,
		hub:      h,
		log:      log,
		bank:     questions.Bank(),
	}
}
