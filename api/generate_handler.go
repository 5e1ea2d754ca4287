package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marinsell/onwater-studio/models"
	"github.com/marinsell/onwater-studio/prompt"
	"github.com/marinsell/onwater-studio/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxUploadBytes  = 10 << 20 // multipart memory cap and per-file limit
	maxBatchFiles   = 8
	generatedFolder = "generated_scenes"

	engineGemini = "gemini"
	engineDalle  = "dalle"

	statusCompleted = "completed"
	statusFailed    = "failed"
)

// Provider calls are indirected so tests can stub them out.
var (
	generatePrimary  = utils.GenerateSceneImage
	generateFallback = utils.GenerateFallbackImage
	validateImage    = utils.ValidateSceneImage
	uploadObject     = utils.UploadFileToS3
	presignObject    = utils.GetPresignedURL
)

// GenerateScenesHandler handles the scene regeneration request: multipart
// images plus scene parameters in, per-image results out. Files are
// processed one at a time; an item failing never aborts the batch.
func GenerateScenesHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Generate Scenes API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Error parsing form data: %v", err), http.StatusBadRequest)
		return
	}

	params := models.SceneParams{
		Location:    r.FormValue("location"),
		Mode:        r.FormValue("mode"),
		Mood:        r.FormValue("mood"),
		Lens:        r.FormValue("lens"),
		AspectRatio: r.FormValue("aspectRatio"),
	}

	if raw := r.FormValue("emphasis"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &params.Emphasis); err != nil {
			utils.RespondError(w, &logMessageBuilder, "emphasis must be a JSON array of strings", http.StatusBadRequest)
			return
		}
	}

	if err := prompt.ValidateParams(params); err != nil {
		utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		utils.RespondError(w, &logMessageBuilder, "At least one image is required", http.StatusBadRequest)
		return
	}
	if len(files) > maxBatchFiles {
		utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("At most %d images per request", maxBatchFiles), http.StatusBadRequest)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, "Warning: UserID not found in context")
	}

	scenePrompt := prompt.BuildScenePrompt(params)
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Processing %d images, mode=%s mood=%s lens=%s ratio=%s",
		len(files), params.Mode, params.Mood, params.Lens, params.AspectRatio))

	results := make([]models.SceneResult, 0, len(files))
	for _, fileHeader := range files {
		result := processUpload(&logMessageBuilder, fileHeader, scenePrompt, params)
		results = append(results, result)
	}

	// Persist the batch. Like every other save in this app it is
	// best-effort: the user still gets their results if Mongo is down.
	batch := models.SceneBatch{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Params:    params,
		Results:   results,
		CreatedAt: time.Now(),
	}
	if utils.Client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		collection := utils.GetCollection("scene_batches")
		if _, err := collection.InsertOne(ctx, batch); err != nil {
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to save batch record: %v", err))
		}
		cancel()
	}

	// Presign stored keys for the response
	for i := range results {
		if results[i].ImageKey == "" {
			continue
		}
		if url, err := presignObject(r.Context(), results[i].ImageKey); err == nil {
			results[i].ImageURL = url
		} else {
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to presign %s: %v", results[i].ImageKey, err))
			results[i].ImageURL = results[i].ImageKey
		}
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"batch_id": batch.ID.Hex(),
		"results":  results,
	})
}

// processUpload runs one file through the generate -> fallback -> validate ->
// store pipeline. All failures end up as the item's error string.
func processUpload(logger *strings.Builder, fileHeader *multipart.FileHeader, scenePrompt string, params models.SceneParams) models.SceneResult {
	result := models.SceneResult{
		ID:       uuid.New().String(),
		FileName: fileHeader.Filename,
		Status:   statusFailed,
		Metadata: models.SceneMetadata{SceneParams: params},
	}

	file, err := fileHeader.Open()
	if err != nil {
		result.Error = fmt.Sprintf("failed to open upload: %v", err)
		return result
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		result.Error = fmt.Sprintf("failed to read upload: %v", err)
		return result
	}
	if len(data) == 0 {
		result.Error = "uploaded file is empty"
		return result
	}
	if len(data) > maxUploadBytes {
		result.Error = fmt.Sprintf("uploaded file exceeds %d bytes", maxUploadBytes)
		return result
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		result.Error = fmt.Sprintf("unsupported file type %q", contentType)
		return result
	}
	imageFormat := strings.TrimPrefix(contentType, "image/")
	if imageFormat == "" {
		imageFormat = "jpeg"
	}

	// Generation can be slow; give it its own generous deadline rather
	// than tying it to the inbound request.
	genCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	engine := engineGemini
	imageBytes, primaryErr := generatePrimary(genCtx, scenePrompt, data, imageFormat)
	if primaryErr != nil {
		utils.AddToLogMessage(logger, fmt.Sprintf("Primary generation failed for %s: %v", fileHeader.Filename, primaryErr))

		engine = engineDalle
		fallbackBytes, fallbackErr := generateFallback(genCtx, scenePrompt, params.AspectRatio)
		if fallbackErr != nil {
			result.Error = fmt.Sprintf("primary generation failed: %v; fallback failed: %v", primaryErr, fallbackErr)
			return result
		}
		imageBytes = fallbackBytes
	}
	result.Metadata.Engine = engine

	if verdict, err := validateImage(genCtx, imageBytes, params); err != nil {
		utils.AddToLogMessage(logger, fmt.Sprintf("Validation unavailable for %s: %v", fileHeader.Filename, err))
		result.Validation = &models.ValidationResult{
			Status:    utils.ValidationSkipped,
			Reasoning: fmt.Sprintf("validation unavailable: %v", err),
		}
	} else {
		result.Validation = verdict
	}

	objectKey := fmt.Sprintf("%s/%s_%d.png", generatedFolder, result.ID, time.Now().UnixNano())
	if _, err := uploadObject(genCtx, bytes.NewReader(imageBytes), objectKey, "image/png"); err != nil {
		result.Error = fmt.Sprintf("failed to store generated image: %v", err)
		return result
	}

	result.ImageKey = objectKey
	result.Status = statusCompleted
	return result
}
