package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yigit/schoolsphere/internal/lite/store"
)

func (s *Server) listStudents(c echo.Context) error {
	p, err := s.page(c)
	if err != nil {
		return err
	}
	students, err := s.store.Students.List(c.Request().Context(), store.StudentFilter{
		ClassName: c.QueryParam("class_name"),
		Section:   c.QueryParam("section"),
	}, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, students)
}

func (s *Server) getStudent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	st, err := s.store.Students.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

func (s *Server) studentByAdmission(c echo.Context) error {
	st, err := s.store.Students.GetByAdmissionNumber(c.Request().Context(), c.Param("number"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

func (s *Server) createStudent(c echo.Context) error {
	var st store.Student
	if err := bindValid(c, &st); err != nil {
		return err
	}
	st.ID = 0
	if err := s.store.Students.Create(c.Request().Context(), &st); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, st)
}

// updateStudent applies the body over the stored record, so omitted fields
// keep their values.
func (s *Server) updateStudent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	st, err := s.store.Students.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bindValid(c, st); err != nil {
		return err
	}
	st.ID = id
	if err := s.store.Students.Update(ctx, st); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

func (s *Server) deleteStudent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.store.Students.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
