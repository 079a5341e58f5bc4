package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/Lemon-stack/budwrite-sub000/internal/apperr"
	"github.com/Lemon-stack/budwrite-sub000/internal/auth"
	"github.com/Lemon-stack/budwrite-sub000/internal/credits"
	"github.com/Lemon-stack/budwrite-sub000/internal/generator"
	"github.com/Lemon-stack/budwrite-sub000/internal/ingest"
	"github.com/Lemon-stack/budwrite-sub000/internal/logging"
	"github.com/Lemon-stack/budwrite-sub000/internal/models"
	"github.com/Lemon-stack/budwrite-sub000/internal/story"
	"github.com/Lemon-stack/budwrite-sub000/internal/user"
	"github.com/gorilla/mux"
)

// multipartMemoryLimit leaves headroom above the 5 MiB image cap for
// the form fields; oversized images are rejected by validation, not
// here.
const multipartMemoryLimit = 8 << 20

type StoryCreator interface {
	CreateStory(ctx context.Context, req generator.CreateStoryRequest, onProgress generator.ProgressFunc) (string, error)
}

type StoryHandler struct {
	generator StoryCreator
	stories   story.Repository
	users     user.Service
	userRepo  user.Repository
}

func NewStoryHandler(gen StoryCreator, stories story.Repository, users user.Service, userRepo user.Repository) *StoryHandler {
	return &StoryHandler{
		generator: gen,
		stories:   stories,
		users:     users,
		userRepo:  userRepo,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusForKind(apperr.KindOf(err)))
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindInsufficientCredits:
		return http.StatusPaymentRequired
	case apperr.KindStorage, apperr.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *StoryHandler) CreateStory(w http.ResponseWriter, r *http.Request) {
	authUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	event := logging.NewWideEvent("story.create")
	ctx := logging.WithContext(r.Context(), event)
	r = r.WithContext(ctx)
	defer logging.Emit(ctx)

	logging.EnrichHTTP(ctx, r.Method, r.URL.Path)
	logging.EnrichUser(ctx, authUser.ID, authUser.Email)

	if _, err := h.users.GetOrCreate(r.Context(), authUser.ID, authUser.Email); err != nil {
		log.Printf("Failed to upsert user %s: %v", authUser.ID, err)
		http.Error(w, internalServerError, http.StatusInternalServerError)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, multipartMemoryLimit)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	// One image per generation, by contract.
	if files := r.MultipartForm.File["image"]; len(files) != 1 {
		http.Error(w, fmt.Sprintf("expected exactly one image, got %d", len(r.MultipartForm.File["image"])), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, ingest.MaxImageBytes+1))
	if err != nil {
		http.Error(w, "failed to read image", http.StatusBadRequest)
		return
	}

	budget, err := strconv.Atoi(r.FormValue("length_budget"))
	if err != nil {
		http.Error(w, "length_budget must be an integer", http.StatusBadRequest)
		return
	}

	req := generator.CreateStoryRequest{
		UserID:       authUser.ID,
		Title:        r.FormValue("title"),
		LengthBudget: budget,
		Image: models.UploadedImage{
			Data:     data,
			MimeType: header.Header.Get("Content-Type"),
			Filename: header.Filename,
		},
	}
	logging.EnrichRequest(ctx, req.Title, req.LengthBudget)

	var lastStage generator.Stage
	storyID, err := h.generator.CreateStory(ctx, req, func(stage generator.Stage) {
		lastStage = stage
		logging.StartStage(ctx, string(stage))
	})
	if err != nil {
		logging.EnrichError(ctx, err, string(lastStage))
		writeError(w, err)
		return
	}
	if cost, err := credits.RequiredCredits(req.LengthBudget); err == nil {
		logging.EnrichStory(ctx, storyID, cost)
	}

	writeJSON(w, models.CreateStoryResponse{
		StoryID: storyID,
		Message: "Story created",
	})
}

func (h *StoryHandler) GetStory(w http.ResponseWriter, r *http.Request) {
	authUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	st, err := h.stories.GetByID(r.Context(), vars["storyID"])
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "story not found", http.StatusNotFound)
			return
		}
		http.Error(w, internalServerError, http.StatusInternalServerError)
		return
	}

	if st.UserID != authUser.ID {
		http.Error(w, "story not found", http.StatusNotFound)
		return
	}

	writeJSON(w, st)
}

func (h *StoryHandler) ListStories(w http.ResponseWriter, r *http.Request) {
	authUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 20)

	stories, err := h.stories.ListByUser(r.Context(), authUser.ID, offset, limit)
	if err != nil {
		http.Error(w, internalServerError, http.StatusInternalServerError)
		return
	}

	total, err := h.stories.CountByUser(r.Context(), authUser.ID)
	if err != nil {
		http.Error(w, internalServerError, http.StatusInternalServerError)
		return
	}

	summaries := make([]*models.StorySummary, 0, len(stories))
	for _, st := range stories {
		summaries = append(summaries, &models.StorySummary{
			ID:        st.ID,
			Title:     st.Title,
			Image:     st.Image,
			Status:    st.Status,
			CreatedAt: st.CreatedAt,
		})
	}

	writeJSON(w, models.StoryListResponse{
		Stories:    summaries,
		TotalCount: total,
	})
}

func (h *StoryHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	authUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	u, err := h.users.GetOrCreate(r.Context(), authUser.ID, authUser.Email)
	if err != nil {
		http.Error(w, internalServerError, http.StatusInternalServerError)
		return
	}

	writeJSON(w, models.MeResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Credits:     u.Credits,
		IsOnboarded: u.IsOnboarded,
	})
}

func (h *StoryHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	authUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.userRepo.SetOnboarded(r.Context(), authUser.ID); err != nil {
		http.Error(w, internalServerError, http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"message": "Onboarding complete"})
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return defaultValue
}
