// Package httpapi exposes the REST surface around the core: account
// registration/login and the guild/channel/membership administration the
// access guard authorizes against.
package httpapi

import (
	stderrors "errors"
	"fmt"
	"guild-chat/auth"
	"guild-chat/domain"
	"guild-chat/errors"
	"guild-chat/repositories"
	"guild-chat/services"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// Page bounds for message listing. limit=0 or a huge value from a client
// must never stream a whole channel in one response.
const (
	defaultMessagePage = 50
	maxMessagePage     = 200
)

type API struct {
	log         *slog.Logger
	authService services.IAuthService
	guilds      repositories.IGuildRepository
	channels    repositories.IChannelRepository
	messages    repositories.IMessageRepository
}

func NewAPI(log *slog.Logger, authService services.IAuthService,
	guilds repositories.IGuildRepository, channels repositories.IChannelRepository,
	messages repositories.IMessageRepository) *API {
	return &API{
		log:         log,
		authService: authService,
		guilds:      guilds,
		channels:    channels,
		messages:    messages,
	}
}

func (a *API) Register(app *fiber.App) {
	api := app.Group("/api")
	api.Post("/auth/register", a.register)
	api.Post("/auth/login", a.login)

	secured := api.Group("", a.requireAuth)
	secured.Post("/guilds", a.createGuild)
	secured.Post("/guilds/:guildId/channels", a.createChannel)
	secured.Get("/guilds/:guildId/channels", a.listChannels)
	secured.Put("/guilds/:guildId/members/:userId", a.addMember)
	secured.Delete("/guilds/:guildId/members/:userId", a.removeMember)
	secured.Get("/channels/:channelId/messages", a.listMessages)
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=2,max=32"`
	Password string `json:"password" validate:"required"`
}

func (a *API) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	token, err := a.authService.Register(req.Email, req.Username, req.Password)
	if err != nil {
		switch {
		case stderrors.Is(err, errors.ErrUserAlreadyExists):
			return fiber.NewError(fiber.StatusConflict, "email already registered")
		case stderrors.Is(err, errors.ErrInvalidPassword):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		default:
			a.log.Error("Registration failed", "error", err)
			return fiber.ErrInternalServerError
		}
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"token": token})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (a *API) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	token, err := a.authService.Login(req.Email, req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}
	return c.JSON(fiber.Map{"token": token})
}

// requireAuth resolves the Bearer token to a userID for downstream handlers.
func (a *API) requireAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
	}
	claims, err := auth.ValidateToken(token)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
	}
	c.Locals("userID", claims.UserID)
	return c.Next()
}

type createGuildRequest struct {
	Name string `json:"name" validate:"required,min=2,max=64"`
}

func (a *API) createGuild(c *fiber.Ctx) error {
	var req createGuildRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	guild, err := a.guilds.CreateGuild(req.Name, c.Locals("userID").(string))
	if err != nil {
		a.log.Error("Guild creation failed", "error", err)
		return fiber.ErrInternalServerError
	}
	return c.Status(fiber.StatusCreated).JSON(guild)
}

type createChannelRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=64"`
	Description string `json:"description" validate:"max=256"`
}

func (a *API) createChannel(c *fiber.Ctx) error {
	guildID := c.Params("guildId")
	if err := a.requireOwner(c, guildID); err != nil {
		return err
	}

	var req createChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	channel, err := a.channels.CreateChannel(guildID, req.Name, req.Description)
	if err != nil {
		a.log.Error("Channel creation failed", "error", err)
		return fiber.ErrInternalServerError
	}
	return c.Status(fiber.StatusCreated).JSON(channel)
}

func (a *API) listChannels(c *fiber.Ctx) error {
	guildID := c.Params("guildId")
	member, err := a.guilds.IsMember(c.Locals("userID").(string), guildID)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	if !member {
		return fiber.ErrForbidden
	}

	channels, err := a.channels.ListChannels(guildID)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(channels)
}

func (a *API) addMember(c *fiber.Ctx) error {
	guildID := c.Params("guildId")
	if err := a.requireOwner(c, guildID); err != nil {
		return err
	}

	if err := a.guilds.AddMember(c.Params("userId"), guildID, "member"); err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return fiber.ErrNotFound
		}
		a.log.Error("Membership write failed", "error", err)
		return fiber.ErrInternalServerError
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// removeMember revokes the membership fact. Live sessions of the removed
// user stay registered; their next join or post in this guild's channels
// fails with forbidden because the guard re-checks on every call.
func (a *API) removeMember(c *fiber.Ctx) error {
	guildID := c.Params("guildId")
	if err := a.requireOwner(c, guildID); err != nil {
		return err
	}

	if err := a.guilds.RemoveMember(c.Params("userId"), guildID); err != nil {
		a.log.Error("Membership delete failed", "error", err)
		return fiber.ErrInternalServerError
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (a *API) listMessages(c *fiber.Ctx) error {
	channelID := c.Params("channelId")
	userID := c.Locals("userID").(string)

	channel, err := a.channels.GetChannel(channelID)
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return fiber.ErrNotFound
		}
		return fiber.ErrInternalServerError
	}
	member, err := a.guilds.IsMember(userID, channel.GuildID)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	if !member {
		return fiber.ErrForbidden
	}

	limit := c.QueryInt("limit", defaultMessagePage)
	if limit < 1 || limit > maxMessagePage {
		limit = defaultMessagePage
	}
	order := repositories.NewestFirst
	if c.Query("order") == "asc" {
		order = repositories.OldestFirst
	}

	room := domain.RoomID(channelID)
	messages, err := a.messages.ListMessages(room, limit, order)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	total, err := a.messages.CountMessages(room)
	if err != nil {
		return fiber.ErrInternalServerError
	}

	c.Set("X-Total-Count", strconv.Itoa(total))
	return c.JSON(messages)
}

func (a *API) requireOwner(c *fiber.Ctx, guildID string) error {
	guild, err := a.guilds.GetGuild(guildID)
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return fiber.ErrNotFound
		}
		return fiber.ErrInternalServerError
	}
	if guild.OwnerID != c.Locals("userID").(string) {
		return fiber.NewError(fiber.StatusForbidden, fmt.Sprintf("only the owner may manage guild %s", guildID))
	}
	return nil
}
