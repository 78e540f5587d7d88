package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dancras/tv-quiz-party/internal/ws"
)

func SetupRoutes(api *API) http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthz", Healthz)
	r.Post("/handshake", api.Handshake)

	// Everything else requires the handshake cookie
	r.Group(func(r chi.Router) {
		r.Use(api.auth.Middleware)

		r.Post("/create_lobby", api.CreateLobby)
		r.Post("/join_lobby", api.JoinLobby)
		r.Get("/get_lobby/{join_code}", api.GetLobbyByCode)

		r.Route("/lobby/{lobby_id}", func(r chi.Router) {
			r.Get("/", api.GetLobby)
			r.Post("/exit", api.ExitLobby)
			r.Post("/start_round", api.StartRound)
			r.Post("/start_question", api.StartQuestion)
			r.Post("/answer_question", api.AnswerQuestion)
			r.Post("/end_question", api.EndQuestion)
			r.Get("/qr", api.JoinCodeQR)
			r.Get("/ws", ws.Handler(api.store, api.hub, api.log))
		})

		r.Post("/update_profile", api.UpdateProfile)
		r.Get("/profile_images/{filename}", api.ProfileImage)
	})

	return r
}
