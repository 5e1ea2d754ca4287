package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/marinsell/onwater-studio/models"
	"github.com/marinsell/onwater-studio/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GalleryResponse represents the response structure for the gallery API
type GalleryResponse struct {
	Batches     []models.SceneBatch `json:"batches"`
	Total       int64               `json:"total"`
	CurrentPage int                 `json:"current_page"`
	TotalPages  int                 `json:"total_pages"`
}

// GalleryHandler returns the caller's past scene batches, newest first
func GalleryHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Gallery API]")

	if r.Method != http.MethodGet {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	page := 1
	limit := 10
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}

	collection := utils.GetCollection("scene_batches")
	filter := bson.M{"user_id": userID, "is_deleted": false}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Failed to fetch data", http.StatusInternalServerError)
		return
	}

	skip := (page - 1) * limit

	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "created_at", Value: -1}}) // Show latest first
	findOptions.SetSkip(int64(skip))
	findOptions.SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, findOptions)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Failed to fetch data", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var batches []models.SceneBatch
	if err = cursor.All(ctx, &batches); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Failed to decode data", http.StatusInternalServerError)
		return
	}

	// Stored results carry S3 keys; hand back presigned URLs
	for i := range batches {
		for j := range batches[i].Results {
			key := batches[i].Results[j].ImageKey
			if key == "" {
				continue
			}
			if url, err := utils.GetPresignedURL(r.Context(), key); err == nil {
				batches[i].Results[j].ImageURL = url
			}
		}
	}

	// Ensure empty slice is returned as [] instead of null
	if batches == nil {
		batches = []models.SceneBatch{}
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Returning %d of %d batches (page %d)", len(batches), total, page))
	utils.RespondJSON(w, http.StatusOK, GalleryResponse{
		Batches:     batches,
		Total:       total,
		CurrentPage: page,
		TotalPages:  totalPages,
	})
}
