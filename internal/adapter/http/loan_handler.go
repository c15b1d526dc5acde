package http

import (
	"net/http"
	"strconv"

	"microloan-backend/internal/adapter/middleware"
	"microloan-backend/internal/domain/errs"
	"microloan-backend/internal/domain/loan"
	"microloan-backend/internal/domain/user"
	uc "microloan-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type LoanHandler struct{ uc *uc.Usecase }

func NewLoanHandler(u *uc.Usecase) *LoanHandler { return &LoanHandler{uc: u} }

type requestLoanReq struct {
	Amount       decimal.Decimal  `json:"amount" validate:"required,gt=0,dec2"`
	DurationDays int              `json:"duration_days" validate:"required,gte=1,lte=365"`
	DailyRate    *decimal.Decimal `json:"daily_rate" validate:"omitempty,gte=0,lt=1,dec6"`
	Purpose      string           `json:"purpose" validate:"max=500"`
}

func (h *LoanHandler) RequestLoan(c echo.Context) error {
	var req requestLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	a, _ := middleware.ActorFrom(c)
	l, err := h.uc.Request(c.Request().Context(), uc.RequestInput{
		BorrowerID:   a.UserID,
		Amount:       req.Amount,
		DurationDays: req.DurationDays,
		DailyRate:    req.DailyRate,
		Purpose:      req.Purpose,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, l)
}

// ListLoans serves ?borrower_id=, ?lender_id= and ?status=requested. Without
// a filter it lists the actor's own loans. Only admins may look at somebody
// else's.
func (h *LoanHandler) ListLoans(c echo.Context) error {
	ctx := c.Request().Context()
	a, _ := middleware.ActorFrom(c)
	borrowerID, lenderID := c.QueryParam("borrower_id"), c.QueryParam("lender_id")

	if status := c.QueryParam("status"); status != "" {
		if loan.Status(status) != loan.StatusRequested {
			return fail(c, errs.Invalid("status", "only requested can be listed"))
		}
		ls, err := h.uc.OpenRequests(ctx)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(http.StatusOK, ls)
	}

	if borrowerID == "" && lenderID == "" {
		switch a.Role {
		case user.RoleBorrower:
			borrowerID = a.UserID
		case user.RoleLender:
			lenderID = a.UserID
		default:
			return fail(c, errs.Invalid("borrower_id", "borrower_id, lender_id or status is required"))
		}
	}
	if a.Role != user.RoleAdmin && borrowerID != a.UserID && lenderID != a.UserID {
		return fail(c, errs.ErrForbidden)
	}

	var (
		ls  []*loan.Loan
		err error
	)
	if borrowerID != "" {
		ls, err = h.uc.ListByBorrower(ctx, borrowerID)
	} else {
		ls, err = h.uc.ListByLender(ctx, lenderID)
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ls)
}

const ctxKeyLoan = "loan"

// CanView guards the per-loan read routes. The loan it loaded is kept on the
// context for GetLoan.
func (h *LoanHandler) CanView(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		a, _ := middleware.ActorFrom(c)
		l, err := h.uc.Visible(c.Request().Context(), c.Param("loan_id"), uc.Viewer{UserID: a.UserID, Role: a.Role})
		if err != nil {
			return fail(c, err)
		}
		c.Set(ctxKeyLoan, l)
		return next(c)
	}
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	if l, ok := c.Get(ctxKeyLoan).(*loan.Loan); ok {
		return c.JSON(http.StatusOK, l)
	}
	l, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) Activate(c echo.Context) error {
	a, _ := middleware.ActorFrom(c)
	l, err := h.uc.Activate(c.Request().Context(), c.Param("loan_id"), a.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) PayInstallment(c echo.Context) error {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		return fail(c, errs.Invalid("day", "must be an integer"))
	}
	a, _ := middleware.ActorFrom(c)
	res, err := h.uc.PayInstallment(c.Request().Context(), c.Param("loan_id"), day, a.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *LoanHandler) MarkRepaid(c echo.Context) error {
	a, _ := middleware.ActorFrom(c)
	l, err := h.uc.MarkRepaid(c.Request().Context(), c.Param("loan_id"), a.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) Schedule(c echo.Context) error {
	v, err := h.uc.Schedule(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *LoanHandler) Transactions(c echo.Context) error {
	txs, err := h.uc.Transactions(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, txs)
}

func (h *LoanHandler) BorrowerDashboard(c echo.Context) error {
	a, _ := middleware.ActorFrom(c)
	d, err := h.uc.BorrowerDashboard(c.Request().Context(), a.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *LoanHandler) LenderDashboard(c echo.Context) error {
	a, _ := middleware.ActorFrom(c)
	d, err := h.uc.LenderDashboard(c.Request().Context(), a.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *LoanHandler) Notifications(c echo.Context) error {
	a, _ := middleware.ActorFrom(c)
	ns, err := h.uc.Notifications(c.Request().Context(), a.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ns)
}

func (h *LoanHandler) AdminOverview(c echo.Context) error {
	o, err := h.uc.AdminOverview(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, o)
}
