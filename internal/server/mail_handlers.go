package server

import (
	"strconv"

	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SendEmail handles POST /api/mail/emails
// @Summary Send email
// @Description Stores one copy per participant; the sender's copy starts read
// @Tags mail
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{recipients=string,subject=string,body=string} true "Email"
// @Success 201 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /mail/emails [post]
func (s *Server) SendEmail(c *fiber.Ctx) error {
	var req struct {
		Recipients string `json:"recipients"`
		Subject    string `json:"subject"`
		Body       string `json:"body"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	senderID := currentUserID(c)
	recipientIDs, err := s.mailService.Send(c.UserContext(), service.SendEmailInput{
		SenderID:   senderID,
		Recipients: req.Recipients,
		Subject:    req.Subject,
		Body:       req.Body,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.publishUsersEvent(recipientIDs, senderID, EventEmailReceived, map[string]interface{}{
		"sender_id": senderID,
		"subject":   req.Subject,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Email sent successfully."})
}

// GetMailboxOrEmail handles GET /api/mail/emails/:mailbox and
// GET /api/mail/emails/:id; a numeric segment names a single email.
// @Summary Mailbox or single email
// @Tags mail
// @Produce json
// @Security BearerAuth
// @Param mailbox path string true "inbox, sent, archive or an email id"
// @Success 200 {array} models.EmailView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /mail/emails/{mailbox} [get]
func (s *Server) GetMailboxOrEmail(c *fiber.Ctx) error {
	segment := c.Params("mailbox")
	ownerID := currentUserID(c)

	if id, err := strconv.ParseUint(segment, 10, 32); err == nil {
		email, err := s.mailService.Get(c.UserContext(), uint(id), ownerID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(email)
	}

	emails, err := s.mailService.Mailbox(c.UserContext(), ownerID, segment)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(emails)
}

// UpdateEmail handles PUT /api/mail/emails/:id
// @Summary Mark read or archived
// @Tags mail
// @Accept json
// @Security BearerAuth
// @Param id path int true "Email ID"
// @Param request body object{read=bool,archived=bool} true "Flags"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /mail/emails/{id} [put]
func (s *Server) UpdateEmail(c *fiber.Ctx) error {
	emailID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Read     *bool `json:"read"`
		Archived *bool `json:"archived"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	err = s.mailService.Update(c.UserContext(), service.UpdateEmailInput{
		EmailID:  emailID,
		OwnerID:  currentUserID(c),
		Read:     req.Read,
		Archived: req.Archived,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
