package http

import (
	"scango/app/internal/auth"
)

// envelope is the success body shared by every JSON route.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    T      `json:"data"`
}

type envelopeResponse[T any] struct {
	Status int
	Body   envelope[T]
}

type messageBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type messageResponse struct {
	Status int
	Body   messageBody
}

type loginResponse struct {
	Body struct {
		Success bool          `json:"success"`
		Token   string        `json:"token"`
		Admin   auth.Identity `json:"admin"`
	}
}

func ok[T any](status int, message string, data T) *envelopeResponse[T] {
	return &envelopeResponse[T]{Status: status, Body: envelope[T]{Success: true, Message: message, Data: data}}
}

func okList[T any](data []T) *envelopeResponse[[]T] {
	if data == nil {
		data = []T{}
	}
	count := len(data)
	return &envelopeResponse[[]T]{Status: 200, Body: envelope[[]T]{Success: true, Count: &count, Data: data}}
}

func okMessage(status int, message string) *messageResponse {
	return &messageResponse{Status: status, Body: messageBody{Success: true, Message: message}}
}
