package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yigit/schoolsphere/internal/lite/store"
)

// Books

func (s *Server) listBooks(c echo.Context) error {
	p, err := s.page(c)
	if err != nil {
		return err
	}
	books, err := s.store.Books.List(c.Request().Context(), store.BookFilter{
		Category: c.QueryParam("category"),
		Search:   strings.TrimSpace(c.QueryParam("q")),
	}, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, books)
}

func (s *Server) searchBooks(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	p, err := s.page(c)
	if err != nil {
		return err
	}
	books, err := s.store.Books.List(c.Request().Context(), store.BookFilter{Search: q}, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, books)
}

func (s *Server) booksByCategory(c echo.Context) error {
	books, err := s.store.Books.List(c.Request().Context(), store.BookFilter{Category: c.Param("category")}, store.Page{Limit: s.cfg.MaxPageSize})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, books)
}

func (s *Server) bookByISBN(c echo.Context) error {
	b, err := s.store.Books.GetByISBN(c.Request().Context(), c.Param("isbn"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (s *Server) getBook(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	b, err := s.store.Books.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

// createBook treats a missing available_copies as every copy on the shelf.
func (s *Server) createBook(c echo.Context) error {
	var b store.Book
	b.AvailableCopies = -1
	if err := c.Bind(&b); err != nil {
		return err
	}
	if b.AvailableCopies < 0 {
		b.AvailableCopies = b.Copies
	}
	if err := c.Validate(&b); err != nil {
		return err
	}
	b.ID = 0
	if err := s.store.Books.Create(c.Request().Context(), &b); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, b)
}

func (s *Server) updateBook(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	b, err := s.store.Books.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bindValid(c, b); err != nil {
		return err
	}
	b.ID = id
	if err := s.store.Books.Update(ctx, b); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (s *Server) deleteBook(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.store.Books.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Categories

func (s *Server) listCategories(c echo.Context) error {
	p, err := s.page(c)
	if err != nil {
		return err
	}
	out, err := s.store.Categories.List(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) rootCategories(c echo.Context) error {
	p, err := s.page(c)
	if err != nil {
		return err
	}
	out, err := s.store.Categories.Roots(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) subcategories(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	out, err := s.store.Categories.Children(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cat, err := s.store.Categories.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cat)
}

func (s *Server) createCategory(c echo.Context) error {
	var cat store.Category
	if err := bindValid(c, &cat); err != nil {
		return err
	}
	cat.ID = 0
	ctx := c.Request().Context()
	if cat.ParentID.Valid {
		if _, err := s.store.Categories.GetByID(ctx, cat.ParentID.Int64); err != nil {
			return err
		}
	}
	if err := s.store.Categories.Create(ctx, &cat); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cat)
}

func (s *Server) updateCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	cat, err := s.store.Categories.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bindValid(c, cat); err != nil {
		return err
	}
	cat.ID = id
	if cat.ParentID.Valid && cat.ParentID.Int64 == id {
		return echo.NewHTTPError(http.StatusBadRequest, "a category cannot be its own parent")
	}
	if err := s.store.Categories.Update(ctx, cat); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cat)
}

func (s *Server) deleteCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.store.Categories.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Members

func (s *Server) listMembers(c echo.Context) error {
	return s.members(c, c.QueryParam("active") == "true")
}

func (s *Server) activeMembers(c echo.Context) error {
	return s.members(c, true)
}

func (s *Server) members(c echo.Context, activeOnly bool) error {
	p, err := s.page(c)
	if err != nil {
		return err
	}
	out, err := s.store.Members.List(c.Request().Context(), activeOnly, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) memberByCard(c echo.Context) error {
	m, err := s.store.Members.GetByCard(c.Request().Context(), c.Param("card"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) memberByUser(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	m, err := s.store.Members.GetByUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) getMember(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	m, err := s.store.Members.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) createMember(c echo.Context) error {
	m := store.Member{IsActive: true, MaxBooks: 3}
	if err := bindValid(c, &m); err != nil {
		return err
	}
	m.ID = 0
	ctx := c.Request().Context()
	if _, err := s.store.Users.GetByID(ctx, m.UserID); err != nil {
		return err
	}
	if err := s.store.Members.Create(ctx, &m); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, m)
}

func (s *Server) updateMember(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	m, err := s.store.Members.GetByID(ctx, id)
	if err != nil {
		return err
	}
	userID := m.UserID
	if err := bindValid(c, m); err != nil {
		return err
	}
	m.ID, m.UserID = id, userID
	if m.EndDate.Valid && m.EndDate.Time.Before(m.StartDate) {
		return echo.NewHTTPError(http.StatusBadRequest, "end_date must not be before start_date")
	}
	if err := s.store.Members.Update(ctx, m); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) deleteMember(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.store.Members.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Circulations

type issueRequest struct {
	BookID   int64  `json:"book_id" validate:"required,gt=0"`
	MemberID int64  `json:"member_id" validate:"required,gt=0"`
	Remarks  string `json:"remarks" validate:"max=255"`
}

func (s *Server) issueBook(c echo.Context) error {
	var req issueRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	circ, err := s.store.Circulations.Issue(c.Request().Context(), store.IssueRequest{
		BookID:   req.BookID,
		MemberID: req.MemberID,
		Today:    s.now(),
		LoanDays: s.cfg.LoanDays,
		Remarks:  req.Remarks,
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int64("circulationId", circ.ID).Int64("bookId", circ.BookID).Int64("memberId", circ.MemberID).Msg("Book issued")
	return c.JSON(http.StatusCreated, circ)
}

func (s *Server) returnBook(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	circ, err := s.store.Circulations.Return(c.Request().Context(), id, s.now(), s.cfg.FinePerDay)
	if err != nil {
		return err
	}
	s.logger.Info().Int64("circulationId", circ.ID).Str("fine", circ.FineAmount.String()).Msg("Book returned")
	return c.JSON(http.StatusOK, circ)
}

func (s *Server) getCirculation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	circ, err := s.store.Circulations.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, circ)
}

func (s *Server) listCirculations(c echo.Context) error {
	p, err := s.page(c)
	if err != nil {
		return err
	}
	out, err := s.store.Circulations.List(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) activeCirculations(c echo.Context) error {
	memberID, err := pathID(c, "memberId")
	if err != nil {
		return err
	}
	out, err := s.store.Circulations.ActiveByMember(c.Request().Context(), memberID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) overdueCirculations(c echo.Context) error {
	out, err := s.store.Circulations.Overdue(c.Request().Context(), s.now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, withDaysLate(out, s.now()))
}

type overdueLoan struct {
	store.Circulation
	DaysLate int `json:"days_late"`
}

func withDaysLate(loans []store.Circulation, now time.Time) []overdueLoan {
	out := make([]overdueLoan, 0, len(loans))
	for _, l := range loans {
		late := int(now.Sub(l.DueDate).Hours() / 24)
		out = append(out, overdueLoan{Circulation: l, DaysLate: late})
	}
	return out
}
