package practice

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/errs"
	"github.com/clinicore/clinicore/pkg/pagination"
)

// Handler exposes tenant login and the practice's own management surface.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the tenant endpoints. Login is public; the rest
// requires an authenticated practice user, and user management requires
// the practice admin role.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/auth/login", h.Login)
	g.GET("/practice", h.GetOwnPractice)

	users := g.Group("/users", auth.RequirePracticeAdmin())
	users.GET("", h.ListUsers)
	users.POST("", h.CreateUser)
}

func (h *Handler) Login(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	result, err := h.svc.Login(c.Request().Context(), body.Email, body.Password)
	if err != nil {
		return errs.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) GetOwnPractice(c echo.Context) error {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok || p.IsSuperAdmin() {
		return errs.ToHTTP(errs.Forbidden("practice context required"))
	}

	practice, err := h.svc.GetPractice(c.Request().Context(), p.PracticeID)
	if err != nil {
		return errs.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, practice)
}

func (h *Handler) ListUsers(c echo.Context) error {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return errs.ToHTTP(errs.Unauthorized("authentication required"))
	}

	params := pagination.FromContext(c)
	users, total, err := h.svc.ListUsers(c.Request().Context(), p.PracticeID, params.Limit, params.Offset)
	if err != nil {
		return errs.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, params.Limit, params.Offset))
}

func (h *Handler) CreateUser(c echo.Context) error {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return errs.ToHTTP(errs.Unauthorized("authentication required"))
	}

	var in CreateUserInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	u, err := h.svc.CreateUser(c.Request().Context(), p.PracticeID, in)
	if err != nil {
		return errs.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, u)
}
