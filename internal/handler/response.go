package handler

import (
	"errors"
	"net/http"

	"github.com/MaryRatiary/back-rise/internal/service"

	"github.com/gin-gonic/gin"
)

// respond writes the response envelope shared with the rest of the Rise
// backend.
func respond(c *gin.Context, status int, body any, message string) {
	c.JSON(status, gin.H{
		"HttpStatusCode": status,
		"ResponseBody":   body,
		"IsSuccess":      status < http.StatusBadRequest,
		"Message":        message,
	})
}

// respondServiceErr maps the service failure taxonomy onto HTTP
// statuses. Unclassified errors become a 500 with a generic message so
// internals never leak to clients.
func respondServiceErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		respond(c, http.StatusForbidden, nil, "Opération non autorisée")
	case errors.Is(err, service.ErrNotFound):
		respond(c, http.StatusNotFound, nil, "Ressource introuvable")
	case errors.Is(err, service.ErrValidation):
		respond(c, http.StatusBadRequest, nil, "Requête invalide")
	case errors.Is(err, service.ErrConflict):
		respond(c, http.StatusConflict, nil, "Conflit de modification")
	default:
		respond(c, http.StatusInternalServerError, nil, "Une erreur est survenue")
	}
}
