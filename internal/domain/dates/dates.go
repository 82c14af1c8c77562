package dates

import "time"

// DateFormat is the wire format for calendar dates. Course and medical dates
// carry no time component so a stored window never shifts with the host
// machine's timezone.
const DateFormat = "2006-01-02"

// CourseDays is the length of a course window in days.
const CourseDays = 7

// MedicalValidityMonths is how long a medical exam stays valid.
const MedicalValidityMonths = 6

// CourseDates is the course window derived from a medical exam date.
type CourseDates struct {
	CourseStartDate time.Time
	CourseEndDate   time.Time
}

// Normalize strips the time component and pins the date to UTC midnight.
func Normalize(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// NextMonday returns d unchanged when d falls on a Monday, otherwise the
// following Monday (Tuesday +6, Wednesday +5, ... Sunday +1).
// INVARIANT: NextMonday(NextMonday(d)) == NextMonday(d)
func NextMonday(d time.Time) time.Time {
	d = Normalize(d)
	offset := (int(time.Monday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset)
}

// MondayOf returns the Monday on or before d, i.e. the start of the course
// week containing d.
func MondayOf(d time.Time) time.Time {
	d = Normalize(d)
	offset := (int(d.Weekday()) - int(time.Monday) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// ComputeCourseDates derives the course window for a medical exam date:
// start is the next Monday on or after the exam, end is start plus seven days.
// POST: result.CourseEndDate == result.CourseStartDate + 7 days
func ComputeCourseDates(medicalDate time.Time) CourseDates {
	start := NextMonday(medicalDate)
	return CourseDates{
		CourseStartDate: start,
		CourseEndDate:   start.AddDate(0, 0, CourseDays),
	}
}

// ParseDate parses a calendar date in the wire format. Parse failures
// propagate untouched to the caller.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

// FormatDate renders a calendar date in the wire format.
func FormatDate(d time.Time) string {
	return d.Format(DateFormat)
}

// MedicalValidUntil returns the last day the given medical exam is still
// valid for.
func MedicalValidUntil(medicalDate time.Time) time.Time {
	return Normalize(medicalDate).AddDate(0, MedicalValidityMonths, 0)
}

// IsMedicalExpired reports whether the exam's validity window ends strictly
// before the course start. This rule correlates two independent dates, so it
// lives beside the window computation rather than inside it.
func IsMedicalExpired(medicalDate, courseStart time.Time) bool {
	return MedicalValidUntil(medicalDate).Before(Normalize(courseStart))
}
