package device

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/errs"
	"github.com/clinicore/clinicore/pkg/pagination"
)

// Handler exposes the device registry under /devices.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the device endpoints on the given group.
// Registration is open to any authenticated practice user; approval,
// revocation and deletion require the practice admin role.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	devices := g.Group("/devices")
	devices.POST("/register", h.Register)
	devices.GET("", h.List)

	admin := devices.Group("", auth.RequirePracticeAdmin())
	admin.POST("/:id/approve", h.Approve)
	admin.POST("/:id/revoke", h.Revoke)
	admin.DELETE("/:id", h.Delete)
}

func principalOf(c echo.Context) (auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return auth.Principal{}, errs.ToHTTP(errs.Unauthorized("authentication required"))
	}
	return p, nil
}

func (h *Handler) Register(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	if p.IsSuperAdmin() {
		return errs.ToHTTP(errs.Forbidden("super-admins do not register devices"))
	}

	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	in.IP = c.RealIP()
	in.UserAgent = c.Request().UserAgent()

	d, err := h.svc.Register(c.Request().Context(), p.PracticeID, in)
	if err != nil {
		return errs.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) List(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}

	params := pagination.FromContext(c)
	devices, total, err := h.svc.ListForPractice(c.Request().Context(), p.PracticeID, params.Limit, params.Offset)
	if err != nil {
		return errs.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(devices, total, params.Limit, params.Offset))
}

func deviceIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid device ID")
	}
	return id, nil
}

func (h *Handler) Approve(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	id, err := deviceIDParam(c)
	if err != nil {
		return err
	}

	d, err := h.svc.Approve(c.Request().Context(), id, p.PracticeID, p.UserID)
	if err != nil {
		return errs.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Revoke(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	id, err := deviceIDParam(c)
	if err != nil {
		return err
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	d, err := h.svc.Revoke(c.Request().Context(), id, p.PracticeID, body.Reason)
	if err != nil {
		return errs.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Delete(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	id, err := deviceIDParam(c)
	if err != nil {
		return err
	}

	if err := h.svc.Delete(c.Request().Context(), id, p.PracticeID); err != nil {
		return errs.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
