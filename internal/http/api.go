package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"notes-service/internal/auth"
	"notes-service/internal/broker"
	"notes-service/internal/command"
	"notes-service/internal/domain"
)

// Handler turns HTTP requests into broker commands and command results into
// HTTP responses. It never touches storage itself.
type Handler struct {
	bus    broker.Sender
	tokens *auth.Issuer
	hasher *auth.Hasher
	logger *logrus.Logger
}

func NewHandler(bus broker.Sender, tokens *auth.Issuer, hasher *auth.Hasher, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		bus:    bus,
		tokens: tokens,
		hasher: hasher,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/register", h.register)
	router.POST("/signin", h.signin)

	notes := router.Group("/", authMiddleware(h.tokens, h.logger))
	{
		notes.POST("/note", h.createNote)
		notes.GET("/note/:id", h.getNote)
		notes.PATCH("/note/:id", h.updateNote)
		notes.DELETE("/note/:id", h.deleteNote)
		notes.GET("/notes/", h.listNotes)
		notes.GET("/notes/shared", h.listSharedNotes)
	}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,max=72"`
}

// createNoteRequest requires the data key; its value may be a string or null.
type createNoteRequest struct {
	Name string          `json:"name" binding:"required"`
	Data json.RawMessage `json:"data" binding:"required"`
}

func (r createNoteRequest) data() (*string, bool) {
	raw := bytes.TrimSpace(r.Data)
	if bytes.Equal(raw, []byte("null")) {
		return nil, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	return &s, true
}

type patchNoteRequest struct {
	Name         *string   `json:"name" binding:"omitempty,min=1"`
	Data         *string   `json:"data"`
	Contributors *[]string `json:"contributors" binding:"omitempty,dive,required"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req, "Fields username and password are required") {
		return
	}

	credential, err := h.hasher.Hash(req.Password)
	if err != nil {
		if !errors.Is(err, domain.ErrValidation) {
			err = domain.Unknown("Unknown error occurred", err)
		}
		h.writeFailure(c, err)
		return
	}

	user, err := broker.Request[*domain.User](c.Request.Context(), h.bus, command.CreateUser, command.CreateUserPayload{
		Username: req.Username,
		Password: credential,
		Role:     domain.RoleUser,
	})
	if err != nil {
		h.writeFailure(c, err)
		return
	}

	h.writeToken(c, user.ID)
}

func (h *Handler) signin(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req, "Fields username and password are required") {
		return
	}

	user, err := broker.Request[*domain.User](c.Request.Context(), h.bus, command.GetUser, command.GetUserPayload{
		Username: req.Username,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, errorResponse("Wrong username or password"))
			return
		}
		h.writeFailure(c, err)
		return
	}
	if !h.hasher.Matches(user.Password, req.Password) {
		c.JSON(http.StatusUnauthorized, errorResponse("Wrong username or password"))
		return
	}

	h.writeToken(c, user.ID)
}

func (h *Handler) createNote(c *gin.Context) {
	var req createNoteRequest
	if !bindJSON(c, &req, `Fields "name" and "data" are required`) {
		return
	}
	data, ok := req.data()
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(`Field "data" must be a string or null`))
		return
	}

	note, err := broker.Request[*domain.Note](c.Request.Context(), h.bus, command.CreateNote, command.CreateNotePayload{
		Name:  req.Name,
		Owner: currentUser(c),
		Data:  data,
	})
	if err != nil {
		h.writeFailure(c, err)
		return
	}

	c.JSON(http.StatusCreated, ResourceResponse{ID: note.ID})
}

func (h *Handler) getNote(c *gin.Context) {
	note, err := broker.Request[*domain.Note](c.Request.Context(), h.bus, command.GetNote, command.GetNotePayload{
		ID:     c.Param("id"),
		Reader: currentUser(c),
	})
	if err != nil {
		h.writeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, noteToResponse(*note))
}

func (h *Handler) listNotes(c *gin.Context) {
	notes, err := broker.Request[[]domain.Note](c.Request.Context(), h.bus, command.ListNotes, command.ListNotesPayload{
		Owner: currentUser(c),
	})
	if err != nil {
		h.writeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, notesToResponse(notes))
}

func (h *Handler) listSharedNotes(c *gin.Context) {
	notes, err := broker.Request[[]domain.Note](c.Request.Context(), h.bus, command.ListSharedNotes, command.ListSharedNotesPayload{
		Contributor: currentUser(c),
	})
	if err != nil {
		h.writeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, notesToResponse(notes))
}

func (h *Handler) updateNote(c *gin.Context) {
	var req patchNoteRequest
	if !bindJSON(c, &req, "Fields name, data and contributors must be valid") {
		return
	}
	patch := domain.NotePatch{
		Name:         req.Name,
		Data:         req.Data,
		Contributors: req.Contributors,
	}
	if patch.Empty() {
		c.JSON(http.StatusUnprocessableEntity, errorResponse("One of name, data or contributors is required"))
		return
	}

	_, err := h.bus.Send(c.Request.Context(), command.UpdateNote, command.UpdateNotePayload{
		Filter: domain.NoteFilter{ID: c.Param("id"), Owner: currentUser(c)},
		Patch:  patch,
	})
	if err != nil {
		h.writeFailure(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteNote(c *gin.Context) {
	_, err := h.bus.Send(c.Request.Context(), command.DeleteNote, command.DeleteNotePayload{
		Filter: domain.NoteFilter{ID: c.Param("id"), Owner: currentUser(c)},
	})
	if err != nil {
		h.writeFailure(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) writeToken(c *gin.Context, userID string) {
	token, err := h.tokens.Issue(userID, domain.RoleUser)
	if err != nil {
		h.writeFailure(c, domain.Unknown("Unknown error occurred", err))
		return
	}
	c.JSON(http.StatusCreated, TokenResponse{Token: token})
}

// writeFailure maps a command failure onto its HTTP status.
func (h *Handler) writeFailure(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	}
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("command failed")
	}
	c.JSON(status, errorResponse(domain.DetailOf(err)))
}

// bindJSON decodes the request body into dst. Undecodable bodies get 400,
// missing or mistyped fields get 422 with msg.
func bindJSON(c *gin.Context, dst any, msg string) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var (
		fieldErrs validator.ValidationErrors
		typeErr   *json.UnmarshalTypeError
	)
	if errors.As(err, &fieldErrs) || errors.As(err, &typeErr) {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(msg))
		return false
	}
	c.JSON(http.StatusBadRequest, errorResponse("Request body must be a JSON object"))
	return false
}
