package httpapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/agrigenius/core/internal/chat"
	"github.com/agrigenius/core/internal/errx"
	"github.com/agrigenius/core/internal/soil"
	"github.com/agrigenius/core/internal/translate"
	"github.com/agrigenius/core/internal/weather"
)

var validate = validator.New()

// allowHeaders is the fixed pre-flight allowance browser clients rely on.
const allowHeaders = "authorization, x-client-info, apikey, content-type"

// StatusReporter exposes the latest upstream probe results for /health.
type StatusReporter interface {
	Status() map[string]string
}

// Deps bundles everything the handlers need.
type Deps struct {
	Orchestrator    *chat.Orchestrator
	Weather         weather.Provider
	Soil            soil.Estimator
	Translator      translate.Translator
	Probe           StatusReporter
	DefaultLocation weather.Location
}

// NewApp builds the Fiber application: permissive CORS on every response
// (errors included), the uniform {error: message} envelope, and the API
// routes.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "agrigenius",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := errx.StatusOf(err)
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: allowHeaders,
	}))
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		payload := fiber.Map{
			"status":  "ok",
			"service": "agrigenius",
		}
		if deps.Probe != nil {
			payload["upstreams"] = deps.Probe.Status()
		}
		return c.JSON(payload)
	})

	registerRoutes(app, deps)
	return app
}

func registerRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Post("/chat", func(c *fiber.Ctx) error {
		var req chatRequest
		if err := c.BodyParser(&req); err != nil {
			return errx.BadRequest("invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return errx.BadRequest(err.Error())
		}

		loc := req.Location
		if loc == (weather.Location{}) {
			loc = deps.DefaultLocation
		}

		result, err := deps.Orchestrator.Ask(c.Context(), chat.Request{
			Message:  req.Message,
			Language: req.Language,
			Location: loc,
		})
		if err != nil {
			return err
		}
		return c.JSON(result)
	})

	v1.Post("/weather", func(c *fiber.Ctx) error {
		loc, err := parseLocation(c)
		if err != nil {
			return err
		}
		snap, err := deps.Weather.Fetch(c.Context(), loc)
		if err != nil {
			return err
		}
		return c.JSON(snap)
	})

	v1.Post("/soil", func(c *fiber.Ctx) error {
		loc, err := parseLocation(c)
		if err != nil {
			return err
		}
		snap, err := deps.Soil.Estimate(c.Context(), loc)
		if err != nil {
			return err
		}
		return c.JSON(snap)
	})

	v1.Post("/translate", func(c *fiber.Ctx) error {
		var req translateRequest
		if err := c.BodyParser(&req); err != nil {
			return errx.BadRequest("invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return errx.BadRequest(err.Error())
		}

		translated, err := deps.Translator.Translate(c.Context(), req.Text, req.From, req.To)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"translated_text": translated,
		})
	})
}

// chatRequest is the orchestrator boundary contract.
type chatRequest struct {
	Message  string           `json:"message" validate:"required"`
	Language string           `json:"language" validate:"omitempty,alpha,max=8"`
	Location weather.Location `json:"location"`
}

// translateRequest mirrors the translation endpoint contract.
type translateRequest struct {
	Text string `json:"text" validate:"required"`
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

func parseLocation(c *fiber.Ctx) (weather.Location, error) {
	var loc weather.Location
	if err := c.BodyParser(&loc); err != nil {
		return loc, errx.BadRequest("invalid request body")
	}
	return loc, nil
}
