package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/courseflow-api/internal/models"
	"github.com/noah-isme/courseflow-api/internal/repository"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/jobs"
	"github.com/noah-isme/courseflow-api/pkg/mailer"
)

// fakeStore is an in-memory entityStore keyed by the entity identifier.
type fakeStore[T any] struct {
	desc      models.Descriptor
	rows      []T
	id        func(*T) string
	ident     func(*T) string
	column    func(*T, string) string
	active    func(*T) bool
	setActive func(*T, bool)
	inserts   int
	insertErr error
}

func (f *fakeStore[T]) Descriptor() models.Descriptor { return f.desc }

func (f *fakeStore[T]) isActive(row *T) bool {
	return !f.desc.SoftDelete || f.active == nil || f.active(row)
}

func (f *fakeStore[T]) FindOne(_ context.Context, identifier string) (*T, error) {
	for i := range f.rows {
		if f.ident(&f.rows[i]) == identifier && f.isActive(&f.rows[i]) {
			row := f.rows[i]
			return &row, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore[T]) FindOneAny(_ context.Context, identifier string) (*T, error) {
	for i := range f.rows {
		if f.ident(&f.rows[i]) == identifier {
			row := f.rows[i]
			return &row, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore[T]) activeRows() []T {
	out := make([]T, 0, len(f.rows))
	for i := range f.rows {
		if f.isActive(&f.rows[i]) {
			out = append(out, f.rows[i])
		}
	}
	return out
}

func (f *fakeStore[T]) FindAll(_ context.Context, _ models.ListOptions) ([]T, error) {
	return f.activeRows(), nil
}

func (f *fakeStore[T]) FindPage(_ context.Context, opts models.ListOptions) ([]T, int, error) {
	rows := f.activeRows()
	start := opts.Offset()
	if start > len(rows) {
		start = len(rows)
	}
	end := start + opts.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], len(rows), nil
}

func (f *fakeStore[T]) ExistsBy(_ context.Context, column, value, excludeIdentifier string) (bool, error) {
	for i := range f.rows {
		if excludeIdentifier != "" && f.ident(&f.rows[i]) == excludeIdentifier {
			continue
		}
		if f.column(&f.rows[i], column) == value {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore[T]) Insert(_ context.Context, record *T) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if s, ok := any(record).(interface{ Stamp(time.Time) }); ok {
		s.Stamp(time.Now().UTC())
	}
	f.rows = append(f.rows, *record)
	f.inserts++
	return nil
}

func (f *fakeStore[T]) InsertAll(ctx context.Context, records []*T) error {
	staged := append([]T{}, f.rows...)
	for i, record := range records {
		if err := f.Insert(ctx, record); err != nil {
			f.rows = staged
			return &repository.BulkInsertError{Index: i, Err: err}
		}
	}
	return nil
}

func (f *fakeStore[T]) Existing(_ context.Context, column string, values []string) (map[string]bool, error) {
	found := make(map[string]bool)
	for _, v := range values {
		for i := range f.rows {
			if f.column(&f.rows[i], column) == v {
				found[v] = true
			}
		}
	}
	return found, nil
}

func (f *fakeStore[T]) Update(_ context.Context, record *T) error {
	for i := range f.rows {
		if f.id(&f.rows[i]) == f.id(record) {
			f.rows[i] = *record
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeStore[T]) Remove(_ context.Context, identifier string) error {
	for i := range f.rows {
		if f.ident(&f.rows[i]) != identifier {
			continue
		}
		if f.desc.SoftDelete {
			f.setActive(&f.rows[i], false)
		} else {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
		}
		return nil
	}
	return sql.ErrNoRows
}

type fakeDepartmentRepo struct {
	*fakeStore[models.Department]
	activeCourses map[string]int
	statsCalls    int
}

func newFakeDepartmentRepo(rows ...models.Department) *fakeDepartmentRepo {
	return &fakeDepartmentRepo{
		fakeStore: &fakeStore[models.Department]{
			desc: models.Descriptor{
				Name:       "department",
				Identifier: "code",
				Unique:     []models.UniqueField{{Field: "code", Column: "code"}, {Field: "name", Column: "name"}},
				SoftDelete: true,
			},
			rows:  rows,
			id:    func(d *models.Department) string { return d.ID },
			ident: func(d *models.Department) string { return d.Code },
			column: func(d *models.Department, column string) string {
				if column == "name" {
					return d.Name
				}
				return d.Code
			},
			active:    func(d *models.Department) bool { return d.IsActive },
			setActive: func(d *models.Department, v bool) { d.IsActive = v },
		},
		activeCourses: map[string]int{},
	}
}

func (r *fakeDepartmentRepo) Search(_ context.Context, term string) ([]models.Department, error) {
	var out []models.Department
	for _, d := range r.activeRows() {
		if strings.Contains(strings.ToLower(d.Name), strings.ToLower(term)) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDepartmentRepo) FindWithoutCourses(context.Context) ([]models.Department, error) {
	var out []models.Department
	for _, d := range r.activeRows() {
		if r.activeCourses[d.Code] == 0 {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDepartmentRepo) FindWithCourseCount(context.Context) ([]models.DepartmentWithCount, error) {
	var out []models.DepartmentWithCount
	for _, d := range r.activeRows() {
		out = append(out, models.DepartmentWithCount{Department: d, CourseCount: r.activeCourses[d.Code]})
	}
	return out, nil
}

func (r *fakeDepartmentRepo) FindWithCourses(context.Context) ([]models.DepartmentWithCourses, error) {
	return nil, nil
}

func (r *fakeDepartmentRepo) FindFullDetails(ctx context.Context, code string) (*models.DepartmentDetails, error) {
	d, err := r.FindOne(ctx, code)
	if err != nil {
		return nil, err
	}
	return &models.DepartmentDetails{Department: *d, Courses: []models.CourseWithSchedules{}}, nil
}

func (r *fakeDepartmentRepo) CountActiveCourses(_ context.Context, code string) (int, error) {
	return r.activeCourses[code], nil
}

func (r *fakeDepartmentRepo) IsActive(ctx context.Context, code string) (bool, error) {
	_, err := r.FindOne(ctx, code)
	return err == nil, nil
}

func (r *fakeDepartmentRepo) Stats(context.Context) (*models.DepartmentStats, error) {
	r.statsCalls++
	total := len(r.activeRows())
	return &models.DepartmentStats{TotalDepartments: total, DepartmentsWithoutCourses: total}, nil
}

type fakeCourseRepo struct {
	*fakeStore[models.Course]
}

func newFakeCourseRepo(rows ...models.Course) *fakeCourseRepo {
	return &fakeCourseRepo{fakeStore: &fakeStore[models.Course]{
		desc: models.Descriptor{
			Name:       "course",
			Identifier: "code",
			Unique:     []models.UniqueField{{Field: "code", Column: "code"}},
			SoftDelete: true,
		},
		rows:      rows,
		id:        func(c *models.Course) string { return c.ID },
		ident:     func(c *models.Course) string { return c.Code },
		column:    func(c *models.Course, _ string) string { return c.Code },
		active:    func(c *models.Course) bool { return c.IsActive },
		setActive: func(c *models.Course, v bool) { c.IsActive = v },
	}}
}

func (r *fakeCourseRepo) filter(keep func(models.Course) bool) []models.Course {
	var out []models.Course
	for _, c := range r.activeRows() {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func (r *fakeCourseRepo) FindActive(context.Context) ([]models.Course, error) {
	return r.activeRows(), nil
}

func (r *fakeCourseRepo) FindByDepartment(_ context.Context, code string) ([]models.Course, error) {
	return r.filter(func(c models.Course) bool { return c.DepartmentCode == code }), nil
}

func (r *fakeCourseRepo) FindByLevel(_ context.Context, level models.Level) ([]models.Course, error) {
	return r.filter(func(c models.Course) bool { return c.Level == level }), nil
}

func (r *fakeCourseRepo) Search(_ context.Context, term string) ([]models.Course, error) {
	return r.filter(func(c models.Course) bool { return strings.Contains(c.Name, term) }), nil
}

func (r *fakeCourseRepo) FindByCreditRange(_ context.Context, min, max int) ([]models.Course, error) {
	return r.filter(func(c models.Course) bool { return c.Credits >= min && c.Credits <= max }), nil
}

func (r *fakeCourseRepo) FindWithoutSchedules(context.Context) ([]models.Course, error) {
	return r.activeRows(), nil
}

func (r *fakeCourseRepo) Stats(context.Context) (*models.CourseStats, error) {
	return &models.CourseStats{TotalCourses: len(r.activeRows())}, nil
}

func (r *fakeCourseRepo) ActiveCodes(_ context.Context, codes []string) (map[string]bool, error) {
	found := make(map[string]bool)
	for _, code := range codes {
		for _, c := range r.activeRows() {
			if c.Code == code {
				found[code] = true
			}
		}
	}
	return found, nil
}

type fakeScheduleRepo struct {
	*fakeStore[models.Schedule]
}

func newFakeScheduleRepo(rows ...models.Schedule) *fakeScheduleRepo {
	return &fakeScheduleRepo{fakeStore: &fakeStore[models.Schedule]{
		desc:   models.Descriptor{Name: "schedule", Identifier: "id"},
		rows:   rows,
		id:     func(s *models.Schedule) string { return s.ID },
		ident:  func(s *models.Schedule) string { return s.ID },
		column: func(s *models.Schedule, _ string) string { return s.ID },
	}}
}

func (r *fakeScheduleRepo) Filter(_ context.Context, filter models.ScheduleFilter) ([]models.Schedule, error) {
	var out []models.Schedule
	for _, s := range r.rows {
		if filter.CourseCode != "" && s.CourseCode != filter.CourseCode {
			continue
		}
		if filter.DayOfWeek != "" && s.DayOfWeek != filter.DayOfWeek {
			continue
		}
		if filter.Window.End > 0 && !models.Overlaps(s.Interval(), filter.Window) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartMinute < out[j].StartMinute })
	return out, nil
}

func (r *fakeScheduleRepo) FindConflict(_ context.Context, courseCode string, day models.DayOfWeek, start, end int, excludeID string) (*models.Schedule, error) {
	for _, s := range r.rows {
		if s.CourseCode != courseCode || s.DayOfWeek != day || (excludeID != "" && s.ID == excludeID) {
			continue
		}
		if models.Overlaps(s.Interval(), models.Interval{Start: start, End: end}) {
			slot := s
			return &slot, nil
		}
	}
	return nil, nil
}

func (r *fakeScheduleRepo) FindByCourseDays(_ context.Context, codes []string) ([]models.Schedule, error) {
	var out []models.Schedule
	for _, s := range r.rows {
		for _, code := range codes {
			if s.CourseCode == code {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeScheduleRepo) Stats(context.Context) (*models.ScheduleStats, error) {
	return &models.ScheduleStats{TotalSchedules: len(r.rows)}, nil
}

type fakeComplaintRepo struct {
	*fakeStore[models.Complaint]
}

func newFakeComplaintRepo(rows ...models.Complaint) *fakeComplaintRepo {
	return &fakeComplaintRepo{fakeStore: &fakeStore[models.Complaint]{
		desc:   models.Descriptor{Name: "complaint", Identifier: "id"},
		rows:   rows,
		id:     func(c *models.Complaint) string { return c.ID },
		ident:  func(c *models.Complaint) string { return c.ID },
		column: func(c *models.Complaint, _ string) string { return c.ID },
	}}
}

func (r *fakeComplaintRepo) FindByUser(_ context.Context, userID string) ([]models.Complaint, error) {
	var out []models.Complaint
	for _, c := range r.rows {
		if c.UserID != nil && *c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeComplaintRepo) FindByStatus(_ context.Context, status models.ComplaintStatus) ([]models.Complaint, error) {
	var out []models.Complaint
	for _, c := range r.rows {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

func newFakeVerificationCodeStore(rows ...models.VerificationCode) *fakeStore[models.VerificationCode] {
	return &fakeStore[models.VerificationCode]{
		desc: models.Descriptor{
			Name:       "verification code",
			Identifier: "id",
			Unique:     []models.UniqueField{{Field: "code", Column: "code"}},
		},
		rows:   rows,
		id:     func(v *models.VerificationCode) string { return v.ID },
		ident:  func(v *models.VerificationCode) string { return v.ID },
		column: func(v *models.VerificationCode, _ string) string { return v.Code },
	}
}

func newFakeUserStore(rows ...models.User) *fakeStore[models.User] {
	return &fakeStore[models.User]{
		desc: models.Descriptor{
			Name:       "user",
			Identifier: "matric_no",
			Unique:     []models.UniqueField{{Field: "matricNO", Column: "matric_no"}, {Field: "email", Column: "email"}},
			SoftDelete: true,
		},
		rows:  rows,
		id:    func(u *models.User) string { return u.ID },
		ident: func(u *models.User) string { return u.MatricNO },
		column: func(u *models.User, column string) string {
			if column == "email" {
				return u.Email
			}
			return u.MatricNO
		},
		active:    func(u *models.User) bool { return u.IsActive },
		setActive: func(u *models.User, v bool) { u.IsActive = v },
	}
}

type memoryCache struct {
	values map[string][]byte
	sets   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	m.sets++
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			delete(m.values, key)
		}
	}
	return nil
}

type recordingQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type recordingSender struct {
	sent []mailer.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}
