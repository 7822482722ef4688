package models

import "time"

// Course is a weekly teaching obligation assigned to one primary teacher.
// WeeklyUnits counts atomic scheduling slots.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	WeeklyUnits int       `db:"weekly_units" json:"weekly_units"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	RoomType    string    `db:"room_type" json:"room_type"`
	Students    int       `db:"students" json:"students"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
