package controller

import (
	"github.com/SLatz18/thoughtsAI/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Check(ctx *fiber.Ctx) error
}

type healthController struct {
	db  *gorm.DB
	rdb *redis.Client
	hub *websocket.Hub
}

func NewHealthController(db *gorm.DB, rdb *redis.Client, hub *websocket.Hub) IHealthController {
	return &healthController{
		db:  db,
		rdb: rdb,
		hub: hub,
	}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Check)
}

func (c *healthController) Check(ctx *fiber.Ctx) error {
	dbStatus := "up"
	if sqlDB, err := c.db.DB(); err != nil || sqlDB.PingContext(ctx.Context()) != nil {
		dbStatus = "down"
	}

	redisStatus := "disabled"
	if c.rdb != nil {
		redisStatus = "up"
		if err := c.rdb.Ping(ctx.Context()).Err(); err != nil {
			redisStatus = "down"
		}
	}

	status := "healthy"
	if dbStatus == "down" {
		status = "unhealthy"
	}

	return ctx.JSON(fiber.Map{
		"status":      status,
		"service":     "thoughtsai",
		"database":    dbStatus,
		"redis":       redisStatus,
		"connections": c.hub.Count(),
	})
}
