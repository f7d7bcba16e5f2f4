// Package memory is a process-local store with the same observable
// behaviour as the Postgres repos: uniqueness, foreign keys and cascades
// are enforced under a single mutex.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/domain/admin"
	"github.com/geocoder89/learnhub/internal/domain/course"
	"github.com/geocoder89/learnhub/internal/domain/enrollment"
	"github.com/geocoder89/learnhub/internal/domain/lesson"
	"github.com/geocoder89/learnhub/internal/domain/session"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/geocoder89/learnhub/internal/utils"
)

type Store struct {
	mu sync.RWMutex

	users       map[string]user.User
	emails      map[string]string // email -> user id
	courses     map[string]course.Course
	lessons     map[string]lesson.Lesson
	enrollments map[string]enrollment.Enrollment
	pairs       map[pairKey]string // (user, course) -> enrollment id
	tokens      map[string]session.RefreshToken
}

type pairKey struct {
	userID   string
	courseID string
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]user.User),
		emails:      make(map[string]string),
		courses:     make(map[string]course.Course),
		lessons:     make(map[string]lesson.Lesson),
		enrollments: make(map[string]enrollment.Enrollment),
		pairs:       make(map[pairKey]string),
		tokens:      make(map[string]session.RefreshToken),
	}
}

// users

func (s *Store) CreateUser(_ context.Context, u user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[u.Email]; taken {
		return user.ErrEmailTaken
	}
	s.users[u.ID] = u
	s.emails[u.Email] = u.ID
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (s *Store) ListUsersWithCounts(_ context.Context) ([]admin.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := make(map[string]int)
	for _, c := range s.courses {
		owned[c.InstructorID]++
	}
	enrolled := make(map[string]int)
	for _, e := range s.enrollments {
		enrolled[e.UserID]++
	}

	out := make([]admin.UserSummary, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, admin.UserSummary{User: u, CourseCount: owned[u.ID], EnrollmentCount: enrolled[u.ID]})
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out, nil
}

func (s *Store) GetUserDetail(_ context.Context, id string) (admin.UserDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return admin.UserDetail{}, user.ErrNotFound
	}

	detail := admin.UserDetail{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
		Enrollments: make([]admin.UserEnrollment, 0),
	}
	for _, e := range s.enrollmentsOfLocked(id) {
		detail.Enrollments = append(detail.Enrollments, admin.UserEnrollment{
			ID:         e.ID,
			Course:     s.courses[e.CourseID],
			Progress:   e.Progress,
			EnrolledAt: e.EnrolledAt,
		})
	}
	return detail, nil
}

func (s *Store) UpdateUserRole(_ context.Context, id string, role access.Role) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return u, nil
}

// DeleteUser refuses users who still own courses; otherwise their
// enrollments go first, then the user and their refresh tokens.
func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return user.ErrNotFound
	}
	for _, c := range s.courses {
		if c.InstructorID == id {
			return user.ErrOwnsCourses
		}
	}

	for eid, e := range s.enrollments {
		if e.UserID == id {
			s.deleteEnrollmentLocked(eid)
		}
	}
	for tid, t := range s.tokens {
		if t.UserID == id {
			delete(s.tokens, tid)
		}
	}
	delete(s.emails, u.Email)
	delete(s.users, id)
	return nil
}

// courses

func (s *Store) CreateCourse(_ context.Context, c course.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[c.InstructorID]; !ok {
		return user.ErrNotFound
	}
	s.courses[c.ID] = c
	return nil
}

func (s *Store) GetCourse(_ context.Context, id string) (course.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courses[id]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListCourses(_ context.Context, limit int, after utils.CourseCursor) ([]course.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]course.Course, 0, len(s.courses))
	for _, c := range s.courses {
		if newerFirst(after.CreatedAt, after.ID, c.CreatedAt, c.ID) {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return newerFirst(all[i].CreatedAt, all[i].ID, all[j].CreatedAt, all[j].ID)
	})
	if len(all) > limit {
		all = all[:limit]
	}

	out := make([]course.Summary, 0, len(all))
	for _, c := range all {
		out = append(out, course.Summary{
			Course:          c,
			Instructor:      s.users[c.InstructorID].Summary(),
			LessonCount:     len(s.lessonsOfLocked(c.ID)),
			EnrollmentCount: s.enrollmentCountLocked(c.ID),
		})
	}
	return out, nil
}

func (s *Store) GetCourseDetail(_ context.Context, id string) (course.Detail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courses[id]
	if !ok {
		return course.Detail{}, course.ErrNotFound
	}

	d := course.Detail{
		Course:      c,
		Instructor:  s.users[c.InstructorID].Summary(),
		Lessons:     s.lessonsOfLocked(id),
		Enrollments: make([]course.EnrolledUser, 0),
	}

	enrolled := make([]enrollment.Enrollment, 0)
	for _, e := range s.enrollments {
		if e.CourseID == id {
			enrolled = append(enrolled, e)
		}
	}
	sort.Slice(enrolled, func(i, j int) bool {
		return newerFirst(enrolled[j].EnrolledAt, enrolled[j].ID, enrolled[i].EnrolledAt, enrolled[i].ID)
	})
	for _, e := range enrolled {
		d.Enrollments = append(d.Enrollments, course.EnrolledUser{
			EnrollmentID: e.ID,
			Progress:     e.Progress,
			EnrolledAt:   e.EnrolledAt,
			User:         s.users[e.UserID].Summary(),
		})
	}
	return d, nil
}

func (s *Store) UpdateCourse(_ context.Context, id string, req course.UpdateCourseRequest) (course.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.courses[id]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	c.Title = req.Title
	c.Description = req.Description
	c.UpdatedAt = time.Now().UTC()
	s.courses[id] = c
	return c, nil
}

// DeleteCourse cascades to the course's lessons and enrollments.
func (s *Store) DeleteCourse(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[id]; !ok {
		return course.ErrNotFound
	}
	for lid, l := range s.lessons {
		if l.CourseID == id {
			delete(s.lessons, lid)
		}
	}
	for eid, e := range s.enrollments {
		if e.CourseID == id {
			s.deleteEnrollmentLocked(eid)
		}
	}
	delete(s.courses, id)
	return nil
}

// lessons

func (s *Store) orderTakenLocked(courseID string, order int, exceptID string) bool {
	for _, l := range s.lessons {
		if l.CourseID == courseID && l.Order == order && l.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *Store) CreateLesson(_ context.Context, l lesson.Lesson) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[l.CourseID]; !ok {
		return course.ErrNotFound
	}
	if s.orderTakenLocked(l.CourseID, l.Order, "") {
		return lesson.ErrOrderTaken
	}
	s.lessons[l.ID] = l
	return nil
}

func (s *Store) ListLessons(_ context.Context, courseID string) ([]lesson.Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.courses[courseID]; !ok {
		return nil, course.ErrNotFound
	}
	return s.lessonsOfLocked(courseID), nil
}

func (s *Store) GetLesson(_ context.Context, id string) (lesson.Detail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lessons[id]
	if !ok {
		return lesson.Detail{}, lesson.ErrNotFound
	}
	c := s.courses[l.CourseID]

	return lesson.Detail{
		Lesson: l,
		Course: lesson.CourseRef{ID: c.ID, Title: c.Title, Description: c.Description, InstructorID: c.InstructorID},
	}, nil
}

func (s *Store) UpdateLesson(_ context.Context, id string, req lesson.UpdateLessonRequest) (lesson.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lessons[id]
	if !ok {
		return lesson.Lesson{}, lesson.ErrNotFound
	}
	if s.orderTakenLocked(l.CourseID, req.Order, id) {
		return lesson.Lesson{}, lesson.ErrOrderTaken
	}
	l.Title = req.Title
	l.Content = req.Content
	l.Order = req.Order
	l.UpdatedAt = time.Now().UTC()
	s.lessons[id] = l
	return l, nil
}

func (s *Store) SetLessonVideo(_ context.Context, id string, videoURL *string) (lesson.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lessons[id]
	if !ok {
		return lesson.Lesson{}, lesson.ErrNotFound
	}
	l.VideoURL = videoURL
	l.UpdatedAt = time.Now().UTC()
	s.lessons[id] = l
	return l, nil
}

func (s *Store) DeleteLesson(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lessons[id]; !ok {
		return lesson.ErrNotFound
	}
	delete(s.lessons, id)
	return nil
}

// enrollments

// CreateEnrollment checks and inserts under one lock, so concurrent
// duplicates resolve to exactly one row.
func (s *Store) CreateEnrollment(_ context.Context, e enrollment.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[e.CourseID]; !ok {
		return course.ErrNotFound
	}
	if _, ok := s.users[e.UserID]; !ok {
		return user.ErrNotFound
	}
	key := pairKey{userID: e.UserID, courseID: e.CourseID}
	if _, dup := s.pairs[key]; dup {
		return enrollment.ErrAlreadyEnrolled
	}
	s.enrollments[e.ID] = e
	s.pairs[key] = e.ID
	return nil
}

func (s *Store) GetEnrollment(_ context.Context, id string) (enrollment.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.enrollments[id]
	if !ok {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	return e, nil
}

func (s *Store) GetEnrollmentView(_ context.Context, id string) (enrollment.View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.enrollments[id]
	if !ok {
		return enrollment.View{}, enrollment.ErrNotFound
	}
	return s.viewLocked(e), nil
}

func (s *Store) ListEnrollmentViews(_ context.Context, userID string) ([]enrollment.View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]enrollment.View, 0)
	for _, e := range s.enrollmentsOfLocked(userID) {
		out = append(out, s.viewLocked(e))
	}
	return out, nil
}

func (s *Store) UpdateProgress(_ context.Context, id string, progress int) (enrollment.Enrollment, error) {
	if err := enrollment.ValidateProgress(progress); err != nil {
		return enrollment.Enrollment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.enrollments[id]
	if !ok {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	e.Progress = progress
	e.UpdatedAt = time.Now().UTC()
	s.enrollments[id] = e
	return e, nil
}

func (s *Store) DeleteEnrollment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.enrollments[id]; !ok {
		return enrollment.ErrNotFound
	}
	s.deleteEnrollmentLocked(id)
	return nil
}

// stats

func (s *Store) Statistics(_ context.Context) (admin.Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := admin.Statistics{
		TotalUsers:       len(s.users),
		TotalCourses:     len(s.courses),
		TotalEnrollments: len(s.enrollments),
		UsersByRole:      make(map[access.Role]int),
	}
	for _, u := range s.users {
		stats.UsersByRole[u.Role]++
	}
	return stats, nil
}

func (s *Store) CourseStats(_ context.Context) ([]admin.CourseStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]admin.CourseStat, 0, len(s.courses))
	created := make(map[string]time.Time, len(s.courses))
	for _, c := range s.courses {
		instructor := s.users[c.InstructorID]
		out = append(out, admin.CourseStat{
			ID:              c.ID,
			Title:           c.Title,
			Instructor:      admin.InstructorRef{Name: instructor.Name, Email: instructor.Email},
			EnrollmentCount: s.enrollmentCountLocked(c.ID),
			LessonCount:     len(s.lessonsOfLocked(c.ID)),
		})
		created[c.ID] = c.CreatedAt
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EnrollmentCount != out[j].EnrollmentCount {
			return out[i].EnrollmentCount > out[j].EnrollmentCount
		}
		return newerFirst(created[out[i].ID], out[i].ID, created[out[j].ID], out[j].ID)
	})
	return out, nil
}

// refresh tokens

func (s *Store) CreateRefreshToken(_ context.Context, t session.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[t.UserID]; !ok {
		return user.ErrNotFound
	}
	s.tokens[t.ID] = t
	return nil
}

func (s *Store) RotateRefreshToken(_ context.Context, oldID, presentedHash string, next session.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.tokens[oldID]
	if !ok {
		return session.ErrInvalid
	}
	now := time.Now().UTC()
	if err := old.Usable(now); err != nil {
		return err
	}
	if old.TokenHash != presentedHash || old.UserID != next.UserID {
		return session.ErrInvalid
	}

	old.RevokedAt = &now
	old.ReplacedBy = &next.ID
	s.tokens[oldID] = old
	s.tokens[next.ID] = next
	return nil
}

func (s *Store) RevokeRefreshToken(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[id]
	if !ok || t.RevokedAt != nil {
		return nil
	}
	now := time.Now().UTC()
	t.RevokedAt = &now
	s.tokens[id] = t
	return nil
}

// helpers; callers hold s.mu

func (s *Store) lessonsOfLocked(courseID string) []lesson.Lesson {
	out := make([]lesson.Lesson, 0)
	for _, l := range s.lessons {
		if l.CourseID == courseID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func (s *Store) enrollmentCountLocked(courseID string) int {
	n := 0
	for _, e := range s.enrollments {
		if e.CourseID == courseID {
			n++
		}
	}
	return n
}

// enrollmentsOfLocked returns the user's enrollments, newest first.
func (s *Store) enrollmentsOfLocked(userID string) []enrollment.Enrollment {
	out := make([]enrollment.Enrollment, 0)
	for _, e := range s.enrollments {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].EnrolledAt, out[i].ID, out[j].EnrolledAt, out[j].ID)
	})
	return out
}

func (s *Store) viewLocked(e enrollment.Enrollment) enrollment.View {
	c := s.courses[e.CourseID]
	return enrollment.View{
		Enrollment: e,
		Course:     c,
		Instructor: s.users[c.InstructorID].Summary(),
		Lessons:    s.lessonsOfLocked(c.ID),
	}
}

func (s *Store) deleteEnrollmentLocked(id string) {
	e := s.enrollments[id]
	delete(s.pairs, pairKey{userID: e.UserID, courseID: e.CourseID})
	delete(s.enrollments, id)
}

// newerFirst orders (at, id) pairs descending, the way the SQL repos do.
func newerFirst(aAt time.Time, aID string, bAt time.Time, bID string) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return aID > bID
}
