// Package httpapi exposes the document store over the realtime database REST
// dialect: GET, PUT and DELETE on /{path}.json, where a missing document
// reads as the JSON literal null.
package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/tourcheck/internal/logging"
	"github.com/dmitrijs2005/tourcheck/internal/server/repositories/documents"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const jsonSuffix = ".json"

var segmentRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var null = []byte("null")

type Options struct {
	// BodyLimit caps PUT bodies in bytes; zero keeps fiber's default.
	BodyLimit int
	// AccessLog receives one line per request; nil disables it.
	AccessLog io.Writer
}

type Server struct {
	App  *fiber.App
	docs documents.Repository
	log  logging.Logger
}

func NewServer(docs documents.Repository, log logging.Logger, opts Options) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             opts.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	if opts.AccessLog != nil {
		app.Use(logger.New(logger.Config{Output: opts.AccessLog}))
	}

	s := &Server{App: app, docs: docs, log: log.With("module", "httpapi")}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	s.App.Get("/*", s.get)
	s.App.Put("/*", s.put)
	s.App.Delete("/*", s.delete)
}

// errorHandler answers like the realtime database: {"error": "..."}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// docPath turns "tours/TUR-AB23.json" into "tours/TUR-AB23".
func docPath(c *fiber.Ctx) (string, error) {
	raw := c.Params("*")
	if !strings.HasSuffix(raw, jsonSuffix) {
		return "", fiber.NewError(fiber.StatusNotFound, "paths must end in .json")
	}
	p := strings.Trim(strings.TrimSuffix(raw, jsonSuffix), "/")
	if p == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "empty path")
	}
	for _, seg := range strings.Split(p, "/") {
		if !segmentRe.MatchString(seg) {
			return "", fiber.NewError(fiber.StatusBadRequest, "invalid path segment "+seg)
		}
	}
	return p, nil
}

func sendJSON(c *fiber.Ctx, body []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

func (s *Server) get(c *fiber.Ctx) error {
	p, err := docPath(c)
	if err != nil {
		return err
	}
	body, err := s.docs.Get(c.UserContext(), p)
	if err != nil {
		s.log.Error(c.UserContext(), "failed to read document", "path", p, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "storage error")
	}
	if body == nil {
		body = null
	}
	return sendJSON(c, body)
}

func (s *Server) put(c *fiber.Ctx) error {
	p, err := docPath(c)
	if err != nil {
		return err
	}

	// fiber reuses the request buffer after the handler returns
	body := bytes.TrimSpace(append([]byte(nil), c.Body()...))
	if !json.Valid(body) {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid data; couldn't parse JSON object")
	}

	if bytes.Equal(body, null) {
		err = s.docs.Delete(c.UserContext(), p)
	} else {
		err = s.docs.Put(c.UserContext(), p, body)
	}
	if err != nil {
		s.log.Error(c.UserContext(), "failed to write document", "path", p, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "storage error")
	}
	s.log.Debug(c.UserContext(), "document written", "path", p, "size", len(body))
	return sendJSON(c, body)
}

func (s *Server) delete(c *fiber.Ctx) error {
	p, err := docPath(c)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(c.UserContext(), p); err != nil {
		s.log.Error(c.UserContext(), "failed to delete document", "path", p, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "storage error")
	}
	s.log.Info(c.UserContext(), "document deleted", "path", p)
	return sendJSON(c, null)
}
