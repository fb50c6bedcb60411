package router

import (
	"go-user-api/handler"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "go-user-api/docs"
)

func NewRouter(userHandler *handler.UserHandler, authMW *handler.AuthMiddleware) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Public routes.
	mux.Handle("POST /register", handler.ErrorHandlingMiddleware(userHandler.Register))
	mux.Handle("POST /login", handler.ErrorHandlingMiddleware(userHandler.Login))
	mux.Handle("POST /refresh-token", handler.ErrorHandlingMiddleware(userHandler.RefreshToken))

	// Routes behind the auth gate.
	mux.Handle("POST /logout", authMW.Handle(handler.ErrorHandlingMiddleware(userHandler.Logout)))
	mux.Handle("POST /change-password", authMW.Handle(handler.ErrorHandlingMiddleware(userHandler.ChangePassword)))
	mux.Handle("GET /current-user", authMW.Handle(handler.ErrorHandlingMiddleware(userHandler.GetCurrentUser)))
	mux.Handle("PATCH /account", authMW.Handle(handler.ErrorHandlingMiddleware(userHandler.UpdateAccount)))
	mux.Handle("PATCH /avatar", authMW.Handle(handler.ErrorHandlingMiddleware(userHandler.UpdateAvatar)))
	mux.Handle("PATCH /cover-image", authMW.Handle(handler.ErrorHandlingMiddleware(userHandler.UpdateCoverImage)))

	mux.Handle("GET /swagger/", httpSwagger.Handler())

	return mux
}
