package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/GarryCodespace/xFood-Web/internal/config"
	authsvc "github.com/GarryCodespace/xFood-Web/internal/services/auth"
	billingsvc "github.com/GarryCodespace/xFood-Web/internal/services/billing"
	catalogsvc "github.com/GarryCodespace/xFood-Web/internal/services/catalog"
	circlessvc "github.com/GarryCodespace/xFood-Web/internal/services/circles"
	mediasvc "github.com/GarryCodespace/xFood-Web/internal/services/media"
	messagessvc "github.com/GarryCodespace/xFood-Web/internal/services/messages"
	ratesvc "github.com/GarryCodespace/xFood-Web/internal/services/rate"
	socialsvc "github.com/GarryCodespace/xFood-Web/internal/services/social"
	userssvc "github.com/GarryCodespace/xFood-Web/internal/services/users"
	"github.com/GarryCodespace/xFood-Web/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService    *authsvc.Service
	UserService    *userssvc.Service
	CatalogService *catalogsvc.Service
	SocialService  *socialsvc.Service
	CircleService  *circlessvc.Service
	MessageService *messagessvc.Service
	MediaService   *mediasvc.Service
	BillingService *billingsvc.Service
	RateLimiter    *ratesvc.Limiter
	Logger         *zap.Logger
	Config         config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	userHandler := handlers.NewUserHandler(deps.UserService)
	recipeHandler := handlers.NewRecipeHandler(deps.CatalogService, deps.UserService)
	bakeHandler := handlers.NewBakeHandler(deps.CatalogService)
	socialHandler := handlers.NewSocialHandler(deps.SocialService)
	circleHandler := handlers.NewCircleHandler(deps.CircleService)
	messageHandler := handlers.NewMessageHandler(deps.MessageService)
	mediaHandler := handlers.NewMediaHandler(deps.MediaService, deps.Config.Upload.MaxFileSizeBytes)
	checkoutHandler := handlers.NewCheckoutHandler(deps.BillingService, deps.RateLimiter)
	webhookHandler := handlers.NewWebhookHandler(deps.BillingService)

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	optionalAuthMW := OptionalAuthMiddleware(deps.AuthService)

	r.Get("/healthz", healthHandler.Get)

	// Provider deliveries authenticate by signature, not bearer token.
	r.Post("/webhooks/stripe", webhookHandler.Handle)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.With(authMW).Post("/logout", authHandler.Logout)
			r.With(authMW).Post("/logout_all", authHandler.LogoutAll)
		})

		r.With(authMW).Get("/me", userHandler.Me)
		r.With(authMW).Put("/me", userHandler.UpdateProfile)
		r.Get("/users/{id}", userHandler.Get)

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", recipeHandler.List)
			r.With(optionalAuthMW).Get("/{id}", recipeHandler.Get)
			r.With(authMW).Post("/", recipeHandler.Create)
			r.With(authMW).Put("/{id}", recipeHandler.Update)
			r.With(authMW).Delete("/{id}", recipeHandler.Delete)
		})

		r.Route("/bakes", func(r chi.Router) {
			r.Get("/", bakeHandler.List)
			r.Get("/{id}", bakeHandler.Get)
			r.With(authMW).Post("/", bakeHandler.Create)
			r.With(authMW).Put("/{id}", bakeHandler.Update)
			r.With(authMW).Delete("/{id}", bakeHandler.Delete)
		})

		r.Route("/items/{item_type}/{item_id}", func(r chi.Router) {
			r.Get("/reviews", socialHandler.ListReviews)
			r.With(authMW).Post("/reviews", socialHandler.CreateReview)
			r.With(authMW).Post("/like", socialHandler.Like)
			r.With(authMW).Delete("/like", socialHandler.Unlike)
			r.Get("/comments", socialHandler.ListComments)
			r.With(authMW).Post("/comments", socialHandler.CreateComment)
		})
		r.With(authMW).Delete("/comments/{id}", socialHandler.DeleteComment)

		r.Route("/circles", func(r chi.Router) {
			r.Get("/", circleHandler.List)
			r.With(authMW).Get("/mine", circleHandler.ListMine)
			r.With(optionalAuthMW).Get("/{id}", circleHandler.Get)
			r.With(authMW).Post("/", circleHandler.Create)
			r.With(authMW).Post("/{id}/join", circleHandler.Join)
			r.With(authMW).Post("/{id}/leave", circleHandler.Leave)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Use(authMW)
			r.Post("/", messageHandler.Send)
			r.Get("/unread", messageHandler.UnreadCount)
			r.Get("/{peer_id}", messageHandler.Conversation)
		})

		r.With(authMW).Post("/media/upload", mediaHandler.Upload)
		r.With(authMW).Get("/media/url", mediaHandler.SignedURL)

		r.Route("/checkout", func(r chi.Router) {
			r.Use(authMW)
			r.Post("/item", checkoutHandler.CheckoutItem)
			r.Post("/subscription", checkoutHandler.CheckoutSubscription)
		})
		r.With(authMW).Get("/purchases", checkoutHandler.Purchases)
		r.With(authMW).Get("/subscription", checkoutHandler.Subscription)
	})
}
