package superadmin

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/domain/practice"
	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/errs"
	"github.com/clinicore/clinicore/pkg/pagination"
)

// Handler exposes the super-admin surface under /superadmin. Login is
// public; everything else requires a super-admin token.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	sa := g.Group("/superadmin")
	sa.POST("/login", h.Login)

	admin := sa.Group("", auth.RequireSuperAdmin())
	admin.GET("/practices", h.ListPractices)
	admin.POST("/practices", h.CreatePractice)
	admin.GET("/practices/:id", h.GetPractice)
	admin.POST("/practices/:id/admins", h.CreatePracticeAdmin)
	admin.PUT("/practices/:id/subscription", h.UpdateSubscription)
	admin.POST("/practices/:id/toggle", h.TogglePractice)
	admin.POST("/devices/:id/approve", h.ApproveDevice)
	admin.GET("/activity", h.ListActivity)
}

func adminOf(c echo.Context) (auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok || !p.IsSuperAdmin() {
		return auth.Principal{}, errs.ToHTTP(errs.Forbidden("super-admin access required"))
	}
	return p, nil
}

func idParam(c echo.Context, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+what+" ID")
	}
	return id, nil
}

func (h *Handler) Login(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	result, err := h.svc.Login(c.Request().Context(), body.Email, body.Password, c.RealIP())
	if err != nil {
		return errs.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) ListPractices(c echo.Context) error {
	if _, err := adminOf(c); err != nil {
		return err
	}

	params := pagination.FromContext(c)
	practices, total, err := h.svc.ListPractices(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		return errs.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(practices, total, params.Limit, params.Offset))
}

func (h *Handler) CreatePractice(c echo.Context) error {
	p, err := adminOf(c)
	if err != nil {
		return err
	}

	var in practice.CreatePracticeInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	created, err := h.svc.CreatePractice(c.Request().Context(), p.UserID, in, c.RealIP())
	if err != nil {
		return errs.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetPractice(c echo.Context) error {
	if _, err := adminOf(c); err != nil {
		return err
	}
	id, err := idParam(c, "practice")
	if err != nil {
		return err
	}

	got, err := h.svc.GetPractice(c.Request().Context(), id)
	if err != nil {
		return errs.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, got)
}

func (h *Handler) CreatePracticeAdmin(c echo.Context) error {
	p, err := adminOf(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "practice")
	if err != nil {
		return err
	}

	var in practice.CreateUserInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	u, err := h.svc.CreatePracticeAdmin(c.Request().Context(), p.UserID, id, in, c.RealIP())
	if err != nil {
		return errs.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) UpdateSubscription(c echo.Context) error {
	p, err := adminOf(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "practice")
	if err != nil {
		return err
	}

	var body struct {
		Plan      string     `json:"plan"`
		ExpiresAt *time.Time `json:"expires_at"`
		MaxUsers  int        `json:"max_users"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	updated, err := h.svc.UpdateSubscription(c.Request().Context(), p.UserID, id, body.Plan, body.ExpiresAt, body.MaxUsers, c.RealIP())
	if err != nil {
		return errs.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) TogglePractice(c echo.Context) error {
	p, err := adminOf(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "practice")
	if err != nil {
		return err
	}

	var body struct {
		Active bool `json:"active"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	updated, err := h.svc.TogglePractice(c.Request().Context(), p.UserID, id, body.Active, c.RealIP())
	if err != nil {
		return errs.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) ApproveDevice(c echo.Context) error {
	p, err := adminOf(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "device")
	if err != nil {
		return err
	}

	d, err := h.svc.ApproveDevice(c.Request().Context(), p.UserID, id, c.RealIP())
	if err != nil {
		return errs.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListActivity(c echo.Context) error {
	if _, err := adminOf(c); err != nil {
		return err
	}

	filter := ActivityFilter{Action: c.QueryParam("action")}
	if raw := c.QueryParam("admin_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid admin_id filter")
		}
		filter.AdminID = id
	}
	if raw := c.QueryParam("practice_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid practice_id filter")
		}
		filter.PracticeID = id
	}

	params := pagination.FromContext(c)
	entries, total, err := h.svc.ListActivity(c.Request().Context(), filter, params.Limit, params.Offset)
	if err != nil {
		return errs.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, params.Limit, params.Offset))
}
