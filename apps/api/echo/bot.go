package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ongea/core/bot"
)

var errBotNotFoundInCtx = errors.New("bot object not found in echo.Context")

type botApi struct {
	svc      bot.Service
	validate *validator.Validate
}

func registerBotAPI(g *echo.Group, svc bot.Service, validate *validator.Validate) {
	api := botApi{
		svc:      svc,
		validate: validate,
	}

	bg := g.Group("/bots")

	bg.POST("", api.create)
	bg.GET("", api.query)
	bg.DELETE("", api.destroyMultiple)
	bg.GET("/phases", api.queryPhases)

	// detail endpoints
	dg := bg.Group("/:id", ctxBotMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/chat", api.chat)
}

// Handlers

func (api *botApi) create(ctx echo.Context) error {
	var data bot.NewBot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBot")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating bot")
	}

	return ctx.JSON(http.StatusCreated, b)
}

func (api *botApi) query(ctx echo.Context) error {
	filter := new(bot.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []bot.Bot{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	bots, err := api.svc.Filter(*filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying bots")
	}
	if bots == nil {
		bots = []bot.Bot{}
	}
	return ctx.JSON(http.StatusOK, bots)
}

func (api *botApi) retrieve(ctx echo.Context) error {
	b, ok := ctx.Get("object").(bot.Bot)
	if !ok {
		return errors.Wrap(errBotNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *botApi) update(ctx echo.Context) error {
	b, ok := ctx.Get("object").(bot.Bot)
	if !ok {
		return errors.Wrap(errBotNotFoundInCtx, "retrieving object from context")
	}

	var data bot.UpdateBot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateBot")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.svc.Update(b.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating bot")
	}

	return ctx.JSON(http.StatusOK, b)
}

func (api *botApi) destroy(ctx echo.Context) error {
	b, ok := ctx.Get("object").(bot.Bot)
	if !ok {
		return errors.Wrap(errBotNotFoundInCtx, "retrieving object from context")
	}

	if err := api.svc.Delete(b.ID); err != nil {
		return errors.Wrap(err, "deleting bot")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *botApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.Delete(query.IDs...); err != nil {
		return errors.Wrap(err, "deleting bots")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *botApi) queryPhases(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, bot.Phases)
}

func (api *botApi) chat(ctx echo.Context) error {
	b, ok := ctx.Get("object").(bot.Bot)
	if !ok {
		return errors.Wrap(errBotNotFoundInCtx, "retrieving object from context")
	}

	var data bot.ChatRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChatRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reply, err := api.svc.Chat(ctx.Request().Context(), b.ID, data)
	if err != nil {
		if errors.Cause(err) == bot.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "chatting with bot")
	}
	return ctx.JSON(http.StatusOK, reply)
}

func ctxBotMiddleware(svc bot.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if b, err := svc.GetByID(ctx.Param("id")); err == nil {
				ctx.Set("object", b)
				return next(ctx)
			} else if errors.Cause(err) != bot.ErrNotFound {
				return errors.Wrap(err, "finding bot by ID")
			}
			return errHttpNotFound
		}
	}
}

type DestroyMultipleRequest struct {
	IDs []string `query:"id"`
}
