package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const studentColumns = `id, user_id, admission_number, roll_number, class_name, section, date_of_birth, gender, blood_group,
	address, phone, parent_name, parent_phone, parent_email, emergency_contact, medical_conditions, created_at, updated_at`

type StudentRepository struct {
	db *sqlx.DB
}

// StudentFilter narrows List; empty fields match everything.
type StudentFilter struct {
	ClassName string
	Section   string
}

func (r *StudentRepository) List(ctx context.Context, f StudentFilter, p Page) ([]Student, error) {
	skip, limit := window(p)
	q := psql.Select(studentColumns).From("students").
		OrderBy("class_name", "section", "roll_number", "id").
		Limit(uint64(limit)).Offset(uint64(skip))
	if f.ClassName != "" {
		q = q.Where(sq.Eq{"class_name": f.ClassName})
	}
	if f.Section != "" {
		q = q.Where(sq.Eq{"section": f.Section})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building student query")
	}
	students := []Student{}
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, translate(err, "listing students")
	}
	return students, nil
}

func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*Student, error) {
	var s Student
	if err := r.db.GetContext(ctx, &s, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id); err != nil {
		return nil, translate(err, "student by id")
	}
	return &s, nil
}

func (r *StudentRepository) GetByAdmissionNumber(ctx context.Context, number string) (*Student, error) {
	var s Student
	if err := r.db.GetContext(ctx, &s, `SELECT `+studentColumns+` FROM students WHERE admission_number = $1`, number); err != nil {
		return nil, translate(err, "student by admission number")
	}
	return &s, nil
}

func (r *StudentRepository) Create(ctx context.Context, s *Student) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO students (user_id, admission_number, roll_number, class_name, section, date_of_birth, gender, blood_group,
			address, phone, parent_name, parent_phone, parent_email, emergency_contact, medical_conditions)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id, created_at, updated_at`,
		s.UserID, s.AdmissionNumber, s.RollNumber, s.ClassName, s.Section, s.DateOfBirth, s.Gender, s.BloodGroup,
		s.Address, s.Phone, s.ParentName, s.ParentPhone, s.ParentEmail, s.EmergencyContact, s.MedicalConditions,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return translate(err, "creating student")
}

func (r *StudentRepository) Update(ctx context.Context, s *Student) error {
	err := r.db.QueryRowxContext(ctx,
		`UPDATE students SET user_id = $2, admission_number = $3, roll_number = $4, class_name = $5, section = $6,
			date_of_birth = $7, gender = $8, blood_group = $9, address = $10, phone = $11, parent_name = $12,
			parent_phone = $13, parent_email = $14, emergency_contact = $15, medical_conditions = $16, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		s.ID, s.UserID, s.AdmissionNumber, s.RollNumber, s.ClassName, s.Section, s.DateOfBirth, s.Gender, s.BloodGroup,
		s.Address, s.Phone, s.ParentName, s.ParentPhone, s.ParentEmail, s.EmergencyContact, s.MedicalConditions,
	).Scan(&s.UpdatedAt)
	return translate(err, "updating student")
}

func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	return affected(res, err, "deleting student")
}
