package handlers

import (
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

const (
	authNone     = "none"
	authOptional = "optional"
	authBearer   = "bearer"
	authAdmin    = "admin"
)

var endpoints = []dto.EndpointDoc{
	{Method: fiber.MethodPost, Path: "/auth/register", Auth: authNone, Description: "Create an account and start a session"},
	{Method: fiber.MethodPost, Path: "/auth/login", Auth: authNone, Description: "Exchange credentials for tokens"},
	{Method: fiber.MethodGet, Path: "/auth/me", Auth: authBearer, Description: "Current user and token info"},
	{Method: fiber.MethodPost, Path: "/auth/logout", Auth: authBearer, Description: "End the session and revoke the access token"},
	{Method: fiber.MethodPost, Path: "/auth/refresh", Auth: authNone, Description: "Issue a new access token from a refresh token"},
	{Method: fiber.MethodPost, Path: "/applications", Auth: authBearer, Description: "Submit an application"},
	{Method: fiber.MethodGet, Path: "/applications", Auth: authBearer, Description: "List own applications (page, limit, sort, status, program)"},
	{Method: fiber.MethodGet, Path: "/applications/:id", Auth: authBearer, Description: "Application detail with analytics"},
	{Method: fiber.MethodPut, Path: "/applications/:id", Auth: authBearer, Description: "Edit a pending application"},
	{Method: fiber.MethodDelete, Path: "/applications/:id", Auth: authBearer, Description: "Withdraw a pending or under-review application"},
	{Method: fiber.MethodGet, Path: "/programs", Auth: authOptional, Description: "Program catalogue"},
	{Method: fiber.MethodGet, Path: "/admin/applications", Auth: authAdmin, Description: "List all applications"},
	{Method: fiber.MethodPut, Path: "/admin/applications/:id/status", Auth: authAdmin, Description: "Move an application through review"},
	{Method: fiber.MethodGet, Path: "/health", Auth: authNone, Description: "Service and storage status"},
	{Method: fiber.MethodGet, Path: "/docs", Auth: authNone, Description: "This document"},
}

type DocsHandler struct {
	version  string
	basePath string
}

func NewDocsHandler(version, basePath string) *DocsHandler {
	return &DocsHandler{version: version, basePath: basePath}
}

func (h *DocsHandler) Docs(c *fiber.Ctx) error {
	return c.JSON(dto.OK("MasterMinds API Documentation", dto.DocsResponse{
		Name:      "MasterMinds API",
		Version:   h.version,
		BasePath:  h.basePath,
		Endpoints: endpoints,
	}))
}
