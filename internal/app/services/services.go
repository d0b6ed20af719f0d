// Package services holds the application workflows:
// AuthService (registration, login, profile), ClassService (class CRUD and
// listings) and EnrollmentService (apply, approve, cancel).
package services
