package api

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marinsell/onwater-studio/models"
	"github.com/marinsell/onwater-studio/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedbackHandler handles feedback submission with optional attachments
func FeedbackHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Feedback API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userIDStr, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid user ID", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Error parsing form data", http.StatusBadRequest)
		return
	}

	name := r.FormValue("name")
	email := r.FormValue("email")
	message := r.FormValue("message")
	contactBack := r.FormValue("contact_back") == "true"

	if name == "" || email == "" || message == "" {
		utils.RespondError(w, &logMessageBuilder, "Name, email, and message are required", http.StatusBadRequest)
		return
	}

	var filePaths []string
	files := r.MultipartForm.File["files"]
	for _, file := range files {
		f, err := file.Open()
		if err != nil {
			utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Error opening file %s", file.Filename), http.StatusInternalServerError)
			return
		}
		defer f.Close()

		ext := filepath.Ext(file.Filename)
		objectKey := fmt.Sprintf("feedback/%s/%s%s", userIDStr, uuid.New().String(), ext)

		path, err := utils.UploadFileToS3(r.Context(), f, objectKey, file.Header.Get("Content-Type"))
		if err != nil {
			utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Error uploading file %s", file.Filename), http.StatusInternalServerError)
			return
		}
		filePaths = append(filePaths, path)
	}

	feedback := models.Feedback{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		Name:        name,
		Email:       email,
		Message:     message,
		ContactBack: contactBack,
		FilePaths:   filePaths,
		CreatedAt:   time.Now(),
	}

	collection := utils.GetCollection("feedbacks")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := collection.InsertOne(ctx, feedback); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Error saving feedback", http.StatusInternalServerError)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{"message": "Feedback submitted successfully"})
}
