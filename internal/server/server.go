// Package server implements the debug/preview HTTP server (SPEC_FULL.md
// §2.8), adapted from the teacher's FiberViewsAdapter/
// CompilerStatsHTTPHandler pattern (engine/fiber_adapter.go, engine/blade.go)
// from rendering HTML templates over fiber.Ctx to serving expansion
// results over github.com/gofiber/fiber/v2, the teacher's own HTTP
// dependency.
package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/bodycache"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/pagectx"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/store"
)

// Server is the debug/preview HTTP server: expand/parse single pages on
// demand and report store/cache statistics.
type Server struct {
	app   *fiber.App
	pc    *pagectx.PageContext
	store *store.PageStore
	cache *bodycache.Cache
}

// New builds a Server. cache may be nil if body caching is disabled.
func New(pc *pagectx.PageContext, st *store.PageStore, cache *bodycache.Cache) *Server {
	s := &Server{pc: pc, store: st, cache: cache}
	s.app = fiber.New(fiber.Config{DisableStartupMessage: true})
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/healthz", s.handleHealthz)
	s.app.Get("/expand/:title", s.handleExpand)
	s.app.Get("/parse/:title", s.handleParse)
	s.app.Get("/stats", s.handleStats)
}

// Listen starts serving on addr, blocking until the server stops.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleHealthz(c *fiber.Ctx) error {
	return c.SendString("ok")
}

func (s *Server) pageText(title string) (string, bool) {
	return s.store.Read(title)
}

func (s *Server) handleExpand(c *fiber.Ctx) error {
	title := c.Params("title")
	text, ok := s.pageText(title)
	if !ok {
		return c.Status(fiber.StatusNotFound).SendString("page not found: " + title)
	}

	if s.cache != nil {
		if body, hit := s.cache.Get(title); hit {
			return c.SendString(body)
		}
	}

	expanded := s.pc.Expand(title, text)
	if s.cache != nil {
		s.cache.Set(title, expanded)
	}
	c.Set("Content-Type", "text/plain; charset=utf-8")
	return c.SendString(expanded)
}

func (s *Server) handleParse(c *fiber.Ctx) error {
	title := c.Params("title")
	text, ok := s.pageText(title)
	if !ok {
		return c.Status(fiber.StatusNotFound).SendString("page not found: " + title)
	}
	node := s.pc.Parse(title, text)
	return c.JSON(node)
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	stats := fiber.Map{"store": s.store.Stats()}
	if s.cache != nil {
		stats["cache"] = s.cache.Stats()
	}
	if s.pc != nil {
		stats["cookies"] = s.pc.CookieCount()
	}
	return c.JSON(stats)
}
