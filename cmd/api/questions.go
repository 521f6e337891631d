package main

import (
	"errors"
	"net/http"

	"rather/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CreateQuestionPayload struct {
	Prompt   string  `json:"prompt" validate:"required,min=1"`
	OptionA  string  `json:"optionA" validate:"required,min=1"`
	OptionB  string  `json:"optionB" validate:"required,min=1"`
	Category *string `json:"category"`
	Language *string `json:"language"`
}

type UpdateQuestionPayload struct {
	Prompt   *string `json:"prompt" validate:"omitempty,min=1"`
	OptionA  *string `json:"optionA" validate:"omitempty,min=1"`
	OptionB  *string `json:"optionB" validate:"omitempty,min=1"`
	Category *string `json:"category"`
	Language *string `json:"language"`
	IsActive *bool   `json:"isActive"`
}

func (app *application) createQuestionHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)
	if identity == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("missing identity"))
		return
	}

	var payload CreateQuestionPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	question := &store.Question{
		ID:       uuid.NewString(),
		OwnerID:  &identity.UserID,
		Prompt:   payload.Prompt,
		OptionA:  payload.OptionA,
		OptionB:  payload.OptionB,
		Category: payload.Category,
		Language: payload.Language,
		IsSystem: false,
		IsActive: true,
	}

	if err := app.store.Questions.Create(r.Context(), question); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, map[string]any{"question": question})
}

func (app *application) updateQuestionHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)
	if identity == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("missing identity"))
		return
	}

	questionID := chi.URLParam(r, "questionID")

	var payload UpdateQuestionPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	update := store.QuestionUpdate{
		Prompt:   payload.Prompt,
		OptionA:  payload.OptionA,
		OptionB:  payload.OptionB,
		Category: payload.Category,
		Language: payload.Language,
		IsActive: payload.IsActive,
	}

	question, err := app.store.Questions.Update(r.Context(), questionID, identity.UserID, update)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNoFields):
			app.badRequestResponse(w, r, errors.New("no fields provided to update"))
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{"question": question})
}

func (app *application) archiveQuestionHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)
	if identity == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("missing identity"))
		return
	}

	questionID := chi.URLParam(r, "questionID")

	question, err := app.store.Questions.Archive(r.Context(), questionID, identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{"question": question})
}

type listQuestionsResponse struct {
	Items      []store.Question `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}

func (app *application) listQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := store.QuestionFilter{}.Parse(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(filter); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if filter.IncludeMine {
		identity := getIdentityFromContext(r)
		if identity == nil {
			app.unauthorizedErrorResponse(w, r, errors.New("includeMine requires a signed-in user"))
			return
		}
		filter.OwnerID = identity.UserID
	}

	items, total, err := app.store.Questions.List(r.Context(), filter)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if items == nil {
		items = []store.Question{}
	}

	totalPages := total / filter.PageSize
	if total%filter.PageSize != 0 {
		totalPages++
	}

	app.jsonResponse(w, http.StatusOK, listQuestionsResponse{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	})
}
