package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
)

type MessageController struct {
	messages *services.MessageService
}

func NewMessageController(messages *services.MessageService) *MessageController {
	return &MessageController{messages: messages}
}

// Store handles POST /messages.
func (c *MessageController) Store(cx *ctx.Context) {
	var in services.MessageInput
	if err := cx.Bind(&in); err != nil {
		cx.Fail(err, "Error processing message")
		return
	}
	if err := c.messages.Validate(in); err != nil {
		cx.Fail(err, "Error processing message")
		return
	}
	cx.Message(http.StatusOK, "Message sent successfully")
}
