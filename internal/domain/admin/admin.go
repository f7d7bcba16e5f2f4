package admin

import (
	"time"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/domain/course"
	"github.com/geocoder89/learnhub/internal/domain/user"
)

type Statistics struct {
	TotalUsers       int                 `json:"totalUsers"`
	TotalCourses     int                 `json:"totalCourses"`
	TotalEnrollments int                 `json:"totalEnrollments"`
	UsersByRole      map[access.Role]int `json:"usersByRole"`
}

type InstructorRef struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CourseStat struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Instructor      InstructorRef `json:"instructor"`
	EnrollmentCount int           `json:"enrollmentCount"`
	LessonCount     int           `json:"lessonCount"`
}

// UserSummary is a user row with derived counts.
type UserSummary struct {
	user.User
	CourseCount     int `json:"courseCount"`
	EnrollmentCount int `json:"enrollmentCount"`
}

type UserEnrollment struct {
	ID         string        `json:"id"`
	Course     course.Course `json:"course"`
	Progress   int           `json:"progress"`
	EnrolledAt time.Time     `json:"enrolledAt"`
}

type UserDetail struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Role        access.Role      `json:"role"`
	CreatedAt   time.Time        `json:"createdAt"`
	Enrollments []UserEnrollment `json:"enrollments"`
}

// UpdateRoleRequest leaves Role unchecked at binding; access.ParseRole
// rejects empty and unknown values alike.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}
