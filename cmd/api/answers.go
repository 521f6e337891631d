package main

import (
	"errors"
	"net/http"

	"rather/internal/store"

	"github.com/google/uuid"
)

type RecordAnswerPayload struct {
	SessionID    *string `json:"sessionId" validate:"omitempty,min=1"`
	QuestionID   string  `json:"questionId" validate:"required,min=1"`
	ChosenOption string  `json:"chosenOption" validate:"required,oneof=A B"`
}

func (app *application) recordAnswerHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)
	if identity == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("missing identity"))
		return
	}

	var payload RecordAnswerPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	answer := &store.Answer{
		ID:           uuid.NewString(),
		SessionID:    payload.SessionID,
		QuestionID:   payload.QuestionID,
		UserID:       identity.UserID,
		ChosenOption: payload.ChosenOption,
	}

	if err := app.store.Answers.Create(r.Context(), answer); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusCreated, map[string]any{"answer": answer})
}
