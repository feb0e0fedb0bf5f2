package response

import (
	"encoding/json"
	"net/http"

	"github.com/shashiranjanraj/storefront/pkg/apperr"
)

// ErrorBody is the single error contract returned by every endpoint.
type ErrorBody struct {
	Kind    apperr.Kind `json:"kind"`
	Message string      `json:"message"`
}

// MessageBody is the plain {"message": "..."} success body.
type MessageBody struct {
	Message string `json:"message"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// OK sends a 200 with v as the body.
func OK(w http.ResponseWriter, v interface{}) {
	JSON(w, http.StatusOK, v)
}

// Created sends a 201 with v as the body.
func Created(w http.ResponseWriter, v interface{}) {
	JSON(w, http.StatusCreated, v)
}

// Message sends {"message": msg} with status.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, MessageBody{Message: msg})
}

// Error writes err using its apperr kind. Unclassified errors become
// internal errors carrying fallback as their message so no detail leaks.
func Error(w http.ResponseWriter, err error, fallback string) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Internal(fallback, err)
	}
	msg := e.Message
	if e.Kind == apperr.KindInternal && fallback != "" {
		msg = fallback
	}
	JSON(w, apperr.Status(e.Kind), ErrorBody{Kind: e.Kind, Message: msg})
}

// Fail writes a classified error without an underlying cause.
func Fail(w http.ResponseWriter, kind apperr.Kind, msg string) {
	JSON(w, apperr.Status(kind), ErrorBody{Kind: kind, Message: msg})
}
