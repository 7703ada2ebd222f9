package handlers

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the API under r. auth guards every route that acts
// on behalf of a signed-in user.
func RegisterRoutes(r fiber.Router, h *Handler, auth fiber.Handler) {
	r.Get("/health", h.Health)

	// Trails. Fixed segments go before /:id.
	trails := r.Group("/trails", unitsParam)
	trails.Get("/", h.ListTrails)
	trails.Get("/featured", h.ListFeaturedTrails)
	trails.Get("/slug/:slug", h.GetTrailBySlug)
	trails.Get("/difficulty/:difficulty", h.ListTrailsByDifficulty)
	trails.Get("/:id", h.GetTrail)
	trails.Get("/:id/reviews", h.ListReviews)
	trails.Post("/:id/reviews", auth, h.CreateReview)
	trails.Post("/:id/image", auth, h.UploadTrailImage)

	weather := r.Group("/weather")
	weather.Get("/", h.GetCurrentWeather)
	weather.Get("/forecast", h.GetForecast)
	weather.Get("/alerts", h.GetWeatherAlerts)

	users := r.Group("/users", auth)
	users.Get("/me", h.GetMe)
	users.Get("/:id", h.GetUser)
	users.Put("/:id", h.UpdateUser)
	users.Get("/:id/stats", h.GetUserStats)

	favorites := r.Group("/favorites", auth)
	favorites.Get("/", unitsParam, h.ListFavorites)
	favorites.Get("/check/:trailId", h.CheckFavorite)
	favorites.Post("/", h.AddFavorite)
	favorites.Post("/toggle", h.ToggleFavorite)
	favorites.Delete("/:trailId", h.RemoveFavorite)

	alerts := r.Group("/alerts", auth)
	alerts.Get("/", h.ListAlerts)
	alerts.Post("/", h.CreateAlert)
}
