package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/marinsell/onwater-studio/api"
	"github.com/marinsell/onwater-studio/config"
	"github.com/marinsell/onwater-studio/utils"
)

func main() {
	config.LoadConfig()

	// Initialize MongoDB
	if err := utils.ConnectMongo(config.MongoURI); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	// CORS Middleware
	corsMiddleware := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Scene generation + history (auth required)
	http.HandleFunc("/generate", corsMiddleware(api.AuthMiddleware(api.GenerateScenesHandler)))
	http.HandleFunc("/gallery", corsMiddleware(api.AuthMiddleware(api.GalleryHandler)))
	http.HandleFunc("/feedback", corsMiddleware(api.AuthMiddleware(api.FeedbackHandler)))

	// Auth routes
	http.HandleFunc("/auth/signup", corsMiddleware(api.SignupHandler))
	http.HandleFunc("/auth/verify-otp", corsMiddleware(api.VerifyOTPHandler))
	http.HandleFunc("/auth/login", corsMiddleware(api.LoginHandler))
	http.HandleFunc("/auth/forgot-password", corsMiddleware(api.ForgotPasswordHandler))
	http.HandleFunc("/auth/reset-password", corsMiddleware(api.ResetPasswordHandler))
	http.HandleFunc("/auth/google/login", corsMiddleware(api.GoogleLoginHandler))
	http.HandleFunc("/auth/google/callback", corsMiddleware(api.GoogleCallbackHandler))

	// Serve the single-page app
	http.Handle("/", utils.LatencyMiddleware(http.FileServer(http.Dir("static"))))

	port := config.Port
	fmt.Printf("Server starting on port %s...\n", port)
	fmt.Printf("Open http://localhost:%s/ to use the studio\n", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
