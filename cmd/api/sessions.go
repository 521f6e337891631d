package main

import (
	"errors"
	"io"
	"net/http"

	"rather/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CreateSessionPayload struct {
	SessionName *string `json:"sessionName" validate:"omitempty,min=1,max=200"`
}

func (app *application) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)
	if identity == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("missing identity"))
		return
	}

	// The body is optional; an empty one just means an unnamed session.
	var payload CreateSessionPayload
	if err := readJSON(w, r, &payload); err != nil && !errors.Is(err, io.EOF) {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	session := &store.Session{
		ID:          uuid.NewString(),
		OwnerID:     identity.UserID,
		SessionName: payload.SessionName,
	}

	if err := app.store.Sessions.Create(r.Context(), session); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, map[string]any{"session": session})
}

func (app *application) endSessionHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)
	if identity == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("missing identity"))
		return
	}

	sessionID := chi.URLParam(r, "sessionID")

	session, err := app.store.Sessions.End(r.Context(), sessionID, identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{"session": session})
}

func (app *application) listSessionAnswersHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)
	if identity == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("missing identity"))
		return
	}

	sessionID := chi.URLParam(r, "sessionID")

	answers, err := app.store.Answers.ListBySession(r.Context(), sessionID, identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if answers == nil {
		answers = []store.Answer{}
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{"answers": answers})
}
